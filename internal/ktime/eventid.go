package ktime

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// gregorianEpochOffset is the count of 100ns intervals between the start of
// the Gregorian calendar (1582-10-15) and the Unix epoch. UUIDv1 timestamps
// are measured from the Gregorian epoch; kronos time is measured from Unix
// epoch, so every conversion between the two adds or subtracts this offset.
const gregorianEpochOffset uint64 = 0x01b21dd213814000

// uuidTimestampBits is the width of the UUIDv1 timestamp field (60 bits:
// time_low[32] | time_mid[16] | time_hi_and_version's low 12 bits).
const uuidTimestampBits = 60

const maxUUIDTimestamp = uint64(1)<<uuidTimestampBits - 1

// MaxWidth is the largest stream time-width representable without the
// UUIDv1 timestamp field wrapping: start + width must stay within the
// 60-bit timestamp space, so a bucket's own width can never exceed the
// largest kronos time the field can hold in the first place.
const MaxWidth = KronosTime(maxUUIDTimestamp - gregorianEpochOffset)

// ErrInvalidUUID is returned when a value cannot be interpreted as a
// version-1 time-based UUID. Corresponds to spec error kind InvalidUuid.
var ErrInvalidUUID = errors.New("ktime: not a version-1 UUID")

// Kind selects how the low-order 64 bits (clock sequence + node) of a
// synthesized EventId are filled in.
type Kind int

const (
	// Random fills the low bits with a fresh cryptographically random
	// value, making collisions between concurrent generators at the same
	// kronos time negligible. This is the kind assigned to real events.
	Random Kind = iota
	// Lowest fills the low bits with all zeros, producing the
	// lexicographically smallest id for a given kronos time — used to
	// synthesize an inclusive lower range bound.
	Lowest
	// Highest fills the low bits with all ones, producing the
	// lexicographically largest id for a given kronos time — used to
	// synthesize an inclusive upper range bound.
	Highest
)

// EventId is a 128-bit, UUIDv1-shaped, time-ordered identifier. It is
// wire-compatible with gocql's native timeuuid representation: both are a
// plain [16]byte laid out per RFC 4122.
type EventId uuid.UUID

// Nil is the zero-value EventId; it never occurs as the id of a real event.
var Nil EventId

// NewEventID builds the EventId whose UUIDv1 timestamp field encodes k, with
// the low-order 64 bits set according to kind.
func NewEventID(k KronosTime, kind Kind) (EventId, error) {
	if int64(k) < 0 {
		return Nil, fmt.Errorf("%w: negative kronos time %d", ErrOverflow, k)
	}
	ts := uint64(k) + gregorianEpochOffset
	if ts > maxUUIDTimestamp {
		return Nil, fmt.Errorf("%w: kronos time %d exceeds uuidv1 timestamp range", ErrOverflow, k)
	}

	var id uuid.UUID
	id[0] = byte(ts >> 24)
	id[1] = byte(ts >> 16)
	id[2] = byte(ts >> 8)
	id[3] = byte(ts)
	id[4] = byte(ts >> 40)
	id[5] = byte(ts >> 32)
	id[6] = byte((ts>>56)&0x0f) | 0x10 // version 1
	id[7] = byte(ts >> 48)

	switch kind {
	case Lowest:
		id[8] = 0x80 // variant bits set, clock_seq_hi cleared otherwise
		id[9] = 0x00
		for i := 10; i < 16; i++ {
			id[i] = 0x00
		}
	case Highest:
		id[8] = 0xbf // variant bits set, clock_seq_hi all ones otherwise
		id[9] = 0xff
		for i := 10; i < 16; i++ {
			id[i] = 0xff
		}
	default: // Random
		var low [8]byte
		if _, err := rand.Read(low[:]); err != nil {
			return Nil, fmt.Errorf("ktime: generating random low bits: %w", err)
		}
		id[8] = (low[0] & 0x3f) | 0x80
		id[9] = low[1]
		copy(id[10:16], low[2:8])
	}
	return EventId(id), nil
}

// timestamp extracts the raw 60-bit UUIDv1 timestamp field.
func (id EventId) timestamp() uint64 {
	hi := uint64(id[6]&0x0f) << 56
	hi |= uint64(id[7]) << 48
	mid := uint64(id[4])<<40 | uint64(id[5])<<32
	low := uint64(id[0])<<24 | uint64(id[1])<<16 | uint64(id[2])<<8 | uint64(id[3])
	return hi | mid | low
}

// TimeOf returns the KronosTime encoded in id's UUIDv1 timestamp field. It
// fails with ErrInvalidUUID if id is not a version-1 UUID.
func TimeOf(id EventId) (KronosTime, error) {
	if (id[6] >> 4) != 1 {
		return 0, fmt.Errorf("%w: version %d", ErrInvalidUUID, id[6]>>4)
	}
	return KronosTime(int64(id.timestamp()) - int64(gregorianEpochOffset)), nil
}

// Compare returns -1, 0, or 1 if a sorts before, equal to, or after b.
//
// This does NOT compare raw bytes: a standard RFC 4122 UUIDv1 layout places
// time_low (the fastest-changing part of the timestamp) first, so naive
// byte comparison would not preserve time order. Instead Compare mirrors
// the comparator a wide-column backend applies to a native timeuuid
// clustering column: timestamp field first, then the remaining bytes
// (clock sequence + node) as a tiebreaker for same-tick ids.
func Compare(a, b EventId) int {
	ta, tb := a.timestamp(), b.timestamp()
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	}
	for i := 8; i < 16; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// String returns the wire form: a 32-character lowercase hex string of the
// 128-bit value, MSB first.
func (id EventId) String() string {
	return hex.EncodeToString(id[:])
}

// ParseEventID parses the 32-character hex wire form produced by String.
func ParseEventID(s string) (EventId, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return Nil, fmt.Errorf("%w: %q", ErrInvalidUUID, s)
	}
	var id EventId
	copy(id[:], b)
	return id, nil
}

// ShardKey returns a pure, process-stable function of id suitable for
// distributing events across a stream's shards. Per spec §9, the stable
// documented choice is the id's own raw 60-bit UUIDv1 timestamp field (its
// kronos time plus gregorianEpochOffset, not the kronos time itself); callers reduce
// this modulo the stream's shard count. Changing this function would
// silently re-shard every existing stream unreadably, so it must never
// change without a storage-format migration.
func ShardKey(id EventId) int64 {
	return int64(id.timestamp())
}
