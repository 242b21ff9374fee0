// Package compress picks a byte codec for saved session files. The codec is
// chosen from the file suffix so a session saved as name.esrafel.zst is
// read back with zstd without any extra flag.
package compress

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Codec interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var codecs = map[string]Codec{
	"none": Noop{},
	"zstd": Zstd{},
	"s2":   S2{},
	"lz4":  LZ4{},
}

var suffixes = map[string]string{
	".zst": "zstd",
	".s2":  "s2",
	".lz4": "lz4",
}

// ByName returns the codec registered as name. The empty name is "none".
func ByName(name string) (Codec, error) {
	if name == "" {
		name = "none"
	}
	c, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown compression %q", name)
	}
	return c, nil
}

// ForPath returns the codec implied by the last suffix of path, and Noop
// for anything it does not recognize.
func ForPath(path string) Codec {
	if name, ok := suffixes[strings.ToLower(filepath.Ext(path))]; ok {
		return codecs[name]
	}
	return Noop{}
}

// Suffix returns the file suffix for a codec, empty for Noop.
func Suffix(c Codec) string {
	for ext, name := range suffixes {
		if name == c.Name() {
			return ext
		}
	}
	return ""
}

type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (Noop) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}
