package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// CachedLayout is the stored result of one layout request: the rendered
// schematic graph as JSON plus the score decomposition.
type CachedLayout struct {
	GraphJSON []byte
	Hop       float64
	Bend      float64
	Move      float64
	Dense     float64
}

func encode(l *CachedLayout) []byte {
	encoded, _ := binary.Marshal(l)
	return encoded
}

func decode(bb []byte) (*CachedLayout, error) {
	var l CachedLayout
	if err := binary.Unmarshal(bb, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func compress(bb []byte) ([]byte, error) {
	return zstd.Compress(nil, bb)
}

func decompress(bb []byte) ([]byte, error) {
	return zstd.Decompress(nil, bb)
}
