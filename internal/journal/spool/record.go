package spool

import (
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/megakorre/journalcloud/internal/journal"
)

// Record encoding: uvarint fieldCount | (uvarint klen | k | uvarint vlen | v)* | crc32c(body)
//
// Fields are written in sorted key order so encoding is deterministic.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeFields serializes a record's field map.
func EncodeFields(rec journal.Record) []byte {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tmp [10]byte
	out := make([]byte, 0, 16)
	n := binary.PutUvarint(tmp[:], uint64(len(keys)))
	out = append(out, tmp[:n]...)
	for _, k := range keys {
		n = binary.PutUvarint(tmp[:], uint64(len(k)))
		out = append(out, tmp[:n]...)
		out = append(out, k...)
		v := rec[k]
		n = binary.PutUvarint(tmp[:], uint64(len(v)))
		out = append(out, tmp[:n]...)
		out = append(out, v...)
	}

	crc := crc32.Checksum(out, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeFields parses an encoded record, verifying the checksum. Returns
// ok=false on any framing or checksum mismatch.
func DecodeFields(b []byte) (journal.Record, bool) {
	if len(b) < 1+4 {
		return nil, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return nil, false
	}

	count, n := binary.Uvarint(body)
	if n <= 0 {
		return nil, false
	}
	body = body[n:]
	rec := make(journal.Record, count)
	for i := uint64(0); i < count; i++ {
		klen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body)-n) < klen {
			return nil, false
		}
		k := string(body[n : n+int(klen)])
		body = body[n+int(klen):]

		vlen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body)-n) < vlen {
			return nil, false
		}
		rec[k] = string(body[n : n+int(vlen)])
		body = body[n+int(vlen):]
	}
	if len(body) != 0 {
		return nil, false
	}
	return rec, true
}
