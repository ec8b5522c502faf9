// Package spool implements a pebble-backed local append-only journal usable
// as a journal.Source.
//
// # Overview
//
// Entries live under big-endian sequence keys so forward iteration yields
// append order:
//   - spool/m           (meta: last assigned seq)
//   - spool/e/{seq_be8} (entries)
//
// Records are stored as: uvarint fieldCount | (len-prefixed k/v)* | crc32c.
//
// API surface (internal)
//
//	s, _ := spool.Open(spool.Options{Dir: dir, Fsync: pebblestore.FsyncModeAlways})
//	defer s.Close()
//
//	// Append a batch atomically; returns assigned seq numbers
//	seqs, _ := s.Append(ctx, []journal.Record{{"MESSAGE": "hi"}})
//
//	// journal.Source: seek, pull, report cursor
//	_ = s.SeekHead()
//	rec, ok, _ := s.Next()
//	cur, _ := s.Cursor() // 16-hex seq of the last consumed entry
//	_, _ = rec, ok
//	_ = cur
//
//	// Compaction: drop entries already acknowledged remotely
//	_, _ = s.TrimThrough(ctx, seqs[len(seqs)-1], 1024, 0)
package spool
