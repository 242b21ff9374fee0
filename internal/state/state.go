// Package state saves and restores a fit session as JSON, optionally
// compressed according to the file suffix.
package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/ichijohodaka/esrfit/internal/compress"
	"github.com/ichijohodaka/esrfit/internal/radical"
)

// Version is written into every session. Load accepts files with no
// version, which older tools produced.
const Version = 1

var (
	ErrChecksum   = errors.New("empirical spectrum checksum mismatch")
	ErrVersion    = errors.New("unsupported session version")
	ErrNoRadicals = errors.New("session has no radicals")
)

// Session is everything needed to pick a fit up where it stopped. The keys
// of the radicals, counters and fitting flag are the ones esrafel writes,
// so its .esrafel files load as they are.
type Session struct {
	Version    int               `json:"version,omitempty"`
	Radicals   []radical.Radical `json:"rads"`
	Points     int               `json:"points"`
	SweepWidth float64           `json:"sweep"`
	Sigma      float64           `json:"sigma"`
	Iterations int64             `json:"iters"`
	Accepted   int64             `json:"accepted,omitempty"`
	Failed     int64             `json:"failed,omitempty"`
	Fitting    bool              `json:"montecarlo"`
	Empirical  []float64         `json:"empirical,omitempty"`
	Checksum   string            `json:"empirical_xxh64,omitempty"`
	Log        []string          `json:"log,omitempty"`
}

// Checksum hashes the bit patterns of s, so -0 and 0 differ and NaN
// payloads are preserved.
func Checksum(s []float64) string {
	d := xxhash.New()
	var b [8]byte
	for _, v := range s {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		d.Write(b[:])
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Marshal encodes s with its checksum filled in.
func Marshal(s Session) ([]byte, error) {
	s.Version = Version
	s.Checksum = ""
	if s.Empirical != nil {
		s.Checksum = Checksum(s.Empirical)
	}
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal decodes and verifies a session.
func Unmarshal(data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.Version > Version {
		return Session{}, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	if s.Checksum != "" && Checksum(s.Empirical) != s.Checksum {
		return Session{}, ErrChecksum
	}
	if s.Empirical != nil && len(s.Empirical) != s.Points {
		return Session{}, fmt.Errorf("empirical spectrum has %d points, session says %d", len(s.Empirical), s.Points)
	}
	if len(s.Radicals) == 0 {
		return Session{}, ErrNoRadicals
	}
	if err := radical.ValidateAll(s.Radicals); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Save writes s to path, compressed with the codec its suffix names.
func Save(path string, s Session) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	data, err = compress.ForPath(path).Compress(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func Load(path string) (Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	data, err := compress.ForPath(path).Decompress(raw)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", path, err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
