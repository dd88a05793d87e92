// Package zoneinfo builds and queries the in-memory representation of
// a time zone derived from a decoded TZif file: the reconciled
// UTC/wall transition tables, the per-transition DST magnitude, and
// the POSIX tail rule used to extrapolate beyond the last recorded
// transition.
package zoneinfo

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/gozoneinfo/tzcore/posixrule"
)

// TypeRecord is an offset/DST/abbreviation triple. Transitions refer
// to one by index into Zone.types; the spec's preference for a
// systems language is to store indices rather than pointers, since an
// index stays valid independent of how the backing array is grown or
// moved.
type TypeRecord struct {
	UTCOffsetSeconds int
	IsDST            bool
	// DSTOffsetSeconds is the magnitude of the DST adjustment; zero
	// for standard types. Invariant: IsDST == (DSTOffsetSeconds != 0).
	DSTOffsetSeconds int
	Abbr             string
}

// LeapSecond is a passthrough of a TZif leap-second correction record.
// tzcore does not apply leap-second arithmetic to any lookup; this
// exists so callers that need the raw table (e.g. to cross-check
// against a TAI-aware clock) are not forced to re-parse the file.
type LeapSecond struct {
	OccurUnix  int64
	Correction int32
}

// TimeZone is the capability set a calendar library dispatches against:
// UTC offset, DST adjustment, and abbreviation at an instant, plus the
// UTC-to-wall conversion with fold disambiguation. Zone implements it.
type TimeZone interface {
	UTCOffset(t time.Time) time.Duration
	DST(t time.Time) time.Duration
	TZName(t time.Time) string
	FromUTC(t time.Time) (wall time.Time, fold int)
}

// Zone is the immutable, fully built in-memory representation of one
// time zone. It is safe for concurrent read from any number of
// goroutines without synchronization; nothing about a Zone's state
// changes after New/Decode returns it.
type Zone struct {
	key        string
	sourceHash [sha256.Size]byte

	types      []TypeRecord
	typeBefore int

	// transUTC[i] is the instant at which the type at transType[i]
	// takes effect. Strictly increasing.
	transUTC []int64
	// transType[i] indexes into types.
	transType []uint8
	// transWall[0] and transWall[1] are the fold=0 and fold=1 wall-time
	// projections of transUTC, built per the max/min-of-neighboring-
	// offsets rule.
	transWall [2][]int64

	tail       *posixrule.TailRule
	tailStdIdx int
	tailDSTIdx int

	leaps []LeapSecond

	// fromCache records whether this Zone was handed out by the process
	// cache (set only by MarkCached) or built by a path that bypasses it
	// (Decode, New, tzcore.LoadNoCache/FromReader), matching the
	// "Zone(k) != Zone.no_cache(k) by identity" invariant the cache
	// layer above this package is responsible for enforcing.
	fromCache bool
}

var _ TimeZone = (*Zone)(nil)

// Key returns the identifier (e.g. "Europe/Minsk") this zone was
// constructed with.
func (z *Zone) Key() string { return z.key }

// Equal reports whether two zones share the same key and were built
// from byte-identical source data. Two zones loaded independently from
// the same file are Equal even though they are different pointers.
func (z *Zone) Equal(other *Zone) bool {
	if z == nil || other == nil {
		return z == other
	}
	return z.key == other.key && z.sourceHash == other.sourceHash
}

// LeapSeconds returns the leap-second correction table carried by the
// source TZif file. tzcore performs no arithmetic with it; it is
// exposed purely so the flag is not silently dropped.
func (z *Zone) LeapSeconds() []LeapSecond {
	return z.leaps
}

// FromCache reports whether this Zone was handed out by the keyed
// cache (tzcache), as opposed to a bypass construction path such as
// Decode called directly or a no-cache facade lookup.
func (z *Zone) FromCache() bool {
	return z.fromCache
}

// MarkCached returns a shallow copy of z with FromCache reporting
// true. The cache layer calls this exactly once, right before
// inserting a freshly built zone into its tiers, since Zone itself has
// no notion of the cache that may or may not be holding it.
func MarkCached(z *Zone) *Zone {
	cp := *z
	cp.fromCache = true
	return &cp
}

// wireZone is the gob-serializable snapshot of a Zone's state. Zone
// itself keeps its fields unexported so callers can't construct a
// half-built instance; gob requires exported fields, hence the
// separate wire type bridged by GobEncode/GobDecode.
type wireZone struct {
	Key        string
	SourceHash [sha256.Size]byte
	Types      []TypeRecord
	TypeBefore int
	TransUTC   []int64
	TransType  []uint8
	TransWall0 []int64
	TransWall1 []int64
	Tail       *posixrule.TailRule
	TailStdIdx int
	TailDSTIdx int
	Leaps      []LeapSecond
}

// GobEncode serializes z. Restoring the result with GobDecode
// reconstructs a Zone that is Equal to z and produces identical
// lookups for every instant (spec invariant 6). fromCache is
// deliberately not part of the wire format: a restored zone is, by
// construction, not in anyone's cache.
func (z *Zone) GobEncode() ([]byte, error) {
	w := wireZone{
		Key:        z.key,
		SourceHash: z.sourceHash,
		Types:      z.types,
		TypeBefore: z.typeBefore,
		TransUTC:   z.transUTC,
		TransType:  z.transType,
		TransWall0: z.transWall[0],
		TransWall1: z.transWall[1],
		Tail:       z.tail,
		TailStdIdx: z.tailStdIdx,
		TailDSTIdx: z.tailDSTIdx,
		Leaps:      z.leaps,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("zoneinfo: gob-encode zone %q: %w", z.key, err)
	}
	return buf.Bytes(), nil
}

// GobDecode restores z from bytes produced by GobEncode.
func (z *Zone) GobDecode(data []byte) error {
	var w wireZone
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("zoneinfo: gob-decode zone: %w", err)
	}
	z.key = w.Key
	z.sourceHash = w.SourceHash
	z.types = w.Types
	z.typeBefore = w.TypeBefore
	z.transUTC = w.TransUTC
	z.transType = w.TransType
	z.transWall[0] = w.TransWall0
	z.transWall[1] = w.TransWall1
	z.tail = w.Tail
	z.tailStdIdx = w.TailStdIdx
	z.tailDSTIdx = w.TailDSTIdx
	z.leaps = w.Leaps
	z.fromCache = false
	return nil
}
