package zoneinfo

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/gozoneinfo/tzcore/posixrule"
	"github.com/gozoneinfo/tzcore/tzif"
)

// fallbackDSTOffset is applied to any DST type whose magnitude the
// one-pass heuristic below could not determine. Preserved verbatim
// per the source algorithm's documented behavior: do not attempt to
// "improve" this with a second pass or cross-zone inference.
const fallbackDSTOffset = 3600

// Decode reads raw TZif bytes from r, decodes and validates them, and
// builds a Zone keyed by key. This is the no-cache, bypass-search
// construction path (the spec's Zone.from_file).
func Decode(r io.Reader, key string) (*Zone, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindMalformedData, fmt.Errorf("reading tzif source: %w", err))
	}
	data, err := tzif.DecodeData(bytes.NewReader(raw))
	if err != nil {
		return nil, newError(KindMalformedData, err)
	}
	return build(data, key, sha256.Sum256(raw))
}

// New builds a Zone from already-decoded TZif data and a content hash
// (the caller's responsibility to compute, typically over the same raw
// bytes Decode would have hashed). Used when a caller already has a
// tzif.Data in hand, e.g. from a cache warm path.
func New(data tzif.Data, key string, sourceHash [sha256.Size]byte) (*Zone, error) {
	return build(data, key, sourceHash)
}

func build(data tzif.Data, key string, hash [sha256.Size]byte) (*Zone, error) {
	var (
		transTimes64 []int64
		transTypes   []uint8
		recs         []tzif.LocalTimeTypeRecord
		designations []byte
		leapRecs     func() []LeapSecond
	)

	if data.Version >= tzif.V2 {
		for _, t := range data.V2Data.TransitionTimes {
			transTimes64 = append(transTimes64, t)
		}
		transTypes = data.V2Data.TransitionTypes
		recs = data.V2Data.LocalTimeTypeRecord
		designations = data.V2Data.TimeZoneDesignation
		leapRecs = func() []LeapSecond {
			out := make([]LeapSecond, len(data.V2Data.LeapSecondRecords))
			for i, l := range data.V2Data.LeapSecondRecords {
				out[i] = LeapSecond{OccurUnix: l.Occur, Correction: l.Corr}
			}
			return out
		}
	} else {
		for _, t := range data.V1Data.TransitionTimes {
			transTimes64 = append(transTimes64, int64(t))
		}
		transTypes = data.V1Data.TransitionTypes
		recs = data.V1Data.LocalTimeTypeRecord
		designations = data.V1Data.TimeZoneDesignation
		leapRecs = func() []LeapSecond {
			out := make([]LeapSecond, len(data.V1Data.LeapSecondRecords))
			for i, l := range data.V1Data.LeapSecondRecords {
				out[i] = LeapSecond{OccurUnix: int64(l.Occur), Correction: l.Corr}
			}
			return out
		}
	}

	types, err := buildTypeRecords(recs, designations)
	if err != nil {
		return nil, newError(KindMalformedData, err)
	}
	computeDSTMagnitudes(types, transTypes)

	typeBefore := defaultTypeBeforeIndex(types)

	z := &Zone{
		key:        key,
		sourceHash: hash,
		types:      types,
		typeBefore: typeBefore,
		transUTC:   transTimes64,
		transType:  transTypes,
		leaps:      leapRecs(),
	}
	buildWallProjection(z)

	if len(data.V2Footer.TZString) > 0 {
		rule, err := posixrule.Parse(string(data.V2Footer.TZString))
		if err != nil {
			return nil, newError(KindMalformedData, fmt.Errorf("tail rule: %w", err))
		}
		z.tail = &rule
		z.tailStdIdx = appendOrReuseType(z, TypeRecord{
			UTCOffsetSeconds: rule.StdOffsetSeconds,
			IsDST:            false,
			Abbr:             rule.StdAbbr,
		})
		if rule.HasDST {
			z.tailDSTIdx = appendOrReuseType(z, TypeRecord{
				UTCOffsetSeconds: rule.DSTOffsetSeconds,
				IsDST:            true,
				DSTOffsetSeconds: rule.DSTOffsetSeconds - rule.StdOffsetSeconds,
				Abbr:             rule.DSTAbbr,
			})
		}
	}

	return z, nil
}

// buildTypeRecords converts the raw TZif local time type records and
// designation pool into TypeRecords with their abbreviation strings
// resolved. DST magnitude is left at zero; computeDSTMagnitudes fills
// it in.
func buildTypeRecords(recs []tzif.LocalTimeTypeRecord, designations []byte) ([]TypeRecord, error) {
	types := make([]TypeRecord, len(recs))
	for i, r := range recs {
		abbr, err := designationAt(designations, int(r.Idx))
		if err != nil {
			return nil, fmt.Errorf("type record %d: %w", i, err)
		}
		types[i] = TypeRecord{
			UTCOffsetSeconds: int(r.Utoff),
			IsDST:            r.Dst,
		}
		types[i].Abbr = abbr
	}
	return types, nil
}

func designationAt(pool []byte, idx int) (string, error) {
	if idx < 0 || idx >= len(pool) {
		return "", fmt.Errorf("designation index %d out of bounds (pool length %d)", idx, len(pool))
	}
	end := idx
	for end < len(pool) && pool[end] != 0 {
		end++
	}
	if end >= len(pool) {
		return "", fmt.Errorf("designation at index %d is not NUL-terminated", idx)
	}
	return string(pool[idx:end]), nil
}

// computeDSTMagnitudes implements the DST magnitude heuristic:
//
//  1. For the first transition i referencing a DST type t, look at the
//     type p of the previous transition (for i==0 there is none, and
//     only step 2 applies). If p is a standard type,
//     dstoff[t] = utcoff[t] - utcoff[p].
//  2. If p is also DST, try the successor q; if q is standard,
//     dstoff[t] = utcoff[t] - utcoff[q].
//  3. Otherwise, defer.
//
// After one pass, any DST type whose magnitude is still zero gets the
// fallback of 3600 seconds. This is a single forward pass with no
// back-propagation — deliberately: see the note on fallbackDSTOffset.
func computeDSTMagnitudes(types []TypeRecord, transType []uint8) {
	determined := make([]bool, len(types))
	for i, t := range transType {
		if !types[t].IsDST || determined[t] {
			continue
		}
		var prevType uint8
		havePrev := false
		if i == 0 {
			// No actual previous transition; the heuristic has nothing
			// to compare against at the very first entry, so it is
			// left for the successor check below.
		} else {
			prevType = transType[i-1]
			havePrev = true
		}

		if havePrev && !types[prevType].IsDST {
			types[t].DSTOffsetSeconds = types[t].UTCOffsetSeconds - types[prevType].UTCOffsetSeconds
			determined[t] = true
			continue
		}

		if i+1 < len(transType) {
			nextType := transType[i+1]
			if !types[nextType].IsDST {
				types[t].DSTOffsetSeconds = types[t].UTCOffsetSeconds - types[nextType].UTCOffsetSeconds
				determined[t] = true
			}
		}
	}
	for i := range types {
		if types[i].IsDST && types[i].DSTOffsetSeconds == 0 {
			types[i].DSTOffsetSeconds = fallbackDSTOffset
		}
	}
}

// defaultTypeBeforeIndex picks the type record used for instants
// before the first recorded transition (or at every instant, when
// there are no transitions and no tail rule): the first standard-time
// type, or index 0 if every type is DST.
func defaultTypeBeforeIndex(types []TypeRecord) int {
	for i, t := range types {
		if !t.IsDST {
			return i
		}
	}
	return 0
}

// buildWallProjection fills transWall[0] and transWall[1] per the
// max/min-of-neighboring-offsets rule: fold=0 takes the larger of the
// offsets either side of a transition (the earlier wall reading at an
// overlap), fold=1 the smaller (the later reading).
func buildWallProjection(z *Zone) {
	n := len(z.transUTC)
	z.transWall[0] = make([]int64, n)
	z.transWall[1] = make([]int64, n)
	for i := 0; i < n; i++ {
		var prevOff int
		if i == 0 {
			prevOff = z.types[z.typeBefore].UTCOffsetSeconds
		} else {
			prevOff = z.types[z.transType[i-1]].UTCOffsetSeconds
		}
		nextOff := z.types[z.transType[i]].UTCOffsetSeconds

		hi, lo := prevOff, nextOff
		if lo > hi {
			hi, lo = lo, hi
		}
		z.transWall[0][i] = z.transUTC[i] + int64(hi)
		z.transWall[1][i] = z.transUTC[i] + int64(lo)
	}
}

// appendOrReuseType returns the index of an existing type record
// matching rec, appending a new one only if none matches. Keeps the
// tail rule's synthetic types from duplicating a type already present
// in the file (common: the last recorded type is usually exactly the
// tail rule's standard type).
func appendOrReuseType(z *Zone, rec TypeRecord) int {
	for i, t := range z.types {
		if t.UTCOffsetSeconds == rec.UTCOffsetSeconds && t.IsDST == rec.IsDST && t.Abbr == rec.Abbr {
			return i
		}
	}
	z.types = append(z.types, rec)
	return len(z.types) - 1
}
