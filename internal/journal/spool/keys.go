package spool

import "encoding/binary"

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - spool/m           (meta: last assigned seq)
// - spool/e/{seq_be8} (entries)

var (
	metaKey     = []byte("spool/m")
	entryPrefix = []byte("spool/e/")
)

// KeyEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyEntry(seq uint64) []byte {
	k := make([]byte, 0, len(entryPrefix)+8)
	k = append(k, entryPrefix...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

// SeqFromKey extracts the sequence from an entry key.
func SeqFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// entryBounds returns iterator bounds covering all entries.
func entryBounds() (low, hi []byte) {
	low = KeyEntry(0)
	hi = append(KeyEntry(^uint64(0)), 0x00)
	return low, hi
}
