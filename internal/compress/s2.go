package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

type S2 struct{}

func (S2) Name() string { return "s2" }

func (S2) Compress(data []byte) ([]byte, error) {
	return s2.EncodeBetter(nil, data), nil
}

func (S2) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("s2: %w", err)
	}
	return out, nil
}
