// Package stylehash hashes application-level style and cell state into the
// 64-bit values carried by delta entries. It sits in the translation layer
// between state edits and the view pipeline: an edit is hashed here, then
// encoded as an insert against the consuming view.
//
// Hashes are deterministic across runs and platforms so evidence streams
// and replayed sessions compare byte-for-byte.
package stylehash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Attr is a bitmask of terminal text attributes.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrReverse
	AttrDim
	AttrBlink
	AttrStrikethrough
)

// Style hashes a foreground color, background color, and attribute mask.
func Style(fg, bg uint32, attrs Attr) uint64 {
	var buf [10]byte
	binary.LittleEndian.PutUint32(buf[0:4], fg)
	binary.LittleEndian.PutUint32(buf[4:8], bg)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(attrs))
	return xxhash.Sum64(buf[:])
}

// Cell hashes a cell's content rune together with its resolved style hash.
func Cell(content rune, styleHash uint64) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(content))
	binary.LittleEndian.PutUint64(buf[4:12], styleHash)
	return xxhash.Sum64(buf[:])
}

// Sum combines already-computed hashes into one, order-sensitively.
func Sum(parts ...uint64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = d.Write(buf[:]) // hash.Hash Write never fails
	}
	return d.Sum64()
}
