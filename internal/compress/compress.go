// Package compress encodes stored project content.
package compress

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCompression = errors.New("unknown compression")

// Compress encodes and decodes a byte payload.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ByName returns the compression registered under name. An empty name is
// the nop compression.
func ByName(name string) (Compress, error) {
	switch strings.ToLower(name) {
	case "", "nop", "none":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, name)
}
