package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	eventRecordPrefix = "evtlog"
	eventOffsetSeq    = "evtlogseq"
	groupOffsetPrefix = "grpoff"
)

// makeEventKey generates a composite key for an event log record.
// Format: prefix:offset with the offset in BigEndian so lexicographic
// iteration visits records in offset order.
func makeEventKey(offset uint64) []byte {
	prefix := eventRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	n := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[n:], offset)
	return buf
}

// eventKeyOffset extracts the offset back out of an event log key.
func eventKeyOffset(key []byte) (uint64, bool) {
	prefixLen := len(eventRecordPrefix) + 1
	if len(key) != prefixLen+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[prefixLen:]), true
}

// makeGroupOffsetKey generates a key for a consumer group's committed offset.
func makeGroupOffsetKey(group string) []byte {
	return []byte(fmt.Sprintf("%s:%s", groupOffsetPrefix, group))
}
