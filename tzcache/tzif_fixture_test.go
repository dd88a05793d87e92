package tzcache

import (
	"bytes"
	"encoding/binary"
)

// utcTZifReader builds the minimal valid V1-only TZif payload for a
// single always-UTC type record, good enough to exercise the cache's
// bookkeeping without depending on the tzif/zoneinfo packages' own
// (unexported) test fixtures.
func utcTZifReader() *bytes.Reader {
	var buf bytes.Buffer
	buf.WriteString("TZif")
	buf.WriteByte(0x00) // version 1
	buf.Write(make([]byte, 15))

	designation := []byte("UTC\x00")
	counts := []uint32{0, 0, 0, 0, 1, uint32(len(designation))}
	for _, c := range counts {
		_ = binary.Write(&buf, binary.BigEndian, c)
	}

	// No transition times/types (timecnt == 0).
	_ = binary.Write(&buf, binary.BigEndian, int32(0)) // utoff
	buf.WriteByte(0)                                   // isdst
	buf.WriteByte(0)                                   // designation index
	buf.Write(designation)
	// leapcnt, isstdcnt, isutcnt are all 0: nothing further to write.

	return bytes.NewReader(buf.Bytes())
}
