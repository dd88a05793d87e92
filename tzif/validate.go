package tzif

import (
	"errors"
	"fmt"
)

// Validate cross-checks header counts against decoded slice lengths and
// the structural constraints RFC 8536 places on local time type records
// and designations. DecodeData calls this before returning, so malformed
// files never reach the zoneinfo builder.
func Validate(d Data) error {
	var errs []error
	if !d.V1Missing && d.Version != d.V1Header.Version && d.V1Header.Version != V1 {
		errs = append(errs, fmt.Errorf("inconsistent version: file = %v, v1 header = %v", d.Version, d.V1Header.Version))
	}

	if !d.V1Missing {
		if err := validateV1(d); err != nil {
			errs = append(errs, err...)
		}
	}

	if d.Version > V1 {
		if d.V2Header.Version != d.Version {
			errs = append(errs, fmt.Errorf("inconsistent version: file = %v, v2+ header = %v", d.Version, d.V2Header.Version))
		}
		if err := validateV2(d); err != nil {
			errs = append(errs, err...)
		}
	}

	if len(errs) > 0 {
		return newError(KindMalformedData, errors.Join(errs...))
	}
	return nil
}

func validateV1(d Data) []error {
	var (
		err    []error
		data   = d.V1Data
		header = d.V1Header
	)

	// Isutcnt
	if header.Isutcnt != 0 && header.Isutcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid v1 isutcnt (%d): must be 0 or equal to typecnt (%d)", header.Isutcnt, header.Typecnt))
	}
	if len(data.UTLocalIndicators) != int(header.Isutcnt) {
		err = append(err, fmt.Errorf("invalid v1 isutcnt: header = %d, data = %d", header.Isutcnt, len(data.UTLocalIndicators)))
	}

	// Isstdcnt
	if header.Isstdcnt != 0 && header.Isstdcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid v1 isstdcnt (%d): must be 0 or equal to typecnt (%d)", header.Isstdcnt, header.Typecnt))
	}
	if len(data.StandardWallIndicators) != int(header.Isstdcnt) {
		err = append(err, fmt.Errorf("invalid v1 isstdcnt: header = %d, data = %d", header.Isstdcnt, len(data.StandardWallIndicators)))
	}

	// Leapcnt
	if len(data.LeapSecondRecords) != int(header.Leapcnt) {
		err = append(err, fmt.Errorf("invalid v1 leapcnt: header = %d, data = %d", header.Leapcnt, len(data.LeapSecondRecords)))
	}

	// Timecnt
	if len(data.TransitionTimes) != int(header.Timecnt) {
		err = append(err, fmt.Errorf("invalid v1 timecnt: header = %d, transition times = %d", header.Timecnt, len(data.TransitionTimes)))
	}
	if times, types := len(data.TransitionTimes), len(data.TransitionTypes); times != types {
		err = append(err, fmt.Errorf("inconsistent v1 transitions: transition times = %d, transition types = %d", times, types))
	}
	err = append(err, validateTransitionTypeIndices("v1", data.TransitionTypes, header.Typecnt)...)

	// Typecnt and Charcnt must be nonzero only in a v1-only file: a v2+
	// file may carry an empty v1 block, since its v2+ block is the one
	// that is decoded.
	if header.Typecnt == 0 && d.Version == V1 {
		err = append(err, fmt.Errorf("invalid v1 typecnt: must not be zero"))
	}
	if len(data.LocalTimeTypeRecord) != int(header.Typecnt) {
		err = append(err, fmt.Errorf("invalid v1 typecnt: header = %d, data = %d", header.Typecnt, len(data.LocalTimeTypeRecord)))
	}

	// Charcnt
	if header.Charcnt == 0 && d.Version == V1 {
		err = append(err, fmt.Errorf("invalid v1 charcnt: must not be zero"))
	}
	if len(data.TimeZoneDesignation) != int(header.Charcnt) {
		err = append(err, fmt.Errorf("invalid v1 charcnt: header = %d, data = %d", header.Charcnt, len(data.TimeZoneDesignation)))
	}
	if header.Charcnt > 0 && data.TimeZoneDesignation[len(data.TimeZoneDesignation)-1] != 0 {
		err = append(err, fmt.Errorf("invalid v1 time zone designations: missing null terminator"))
	}
	err = append(err, validateTypeRecords("v1", data.LocalTimeTypeRecord, data.TimeZoneDesignation)...)
	return err
}

func validateV2(d Data) []error {
	var (
		err    []error
		data   = d.V2Data
		header = d.V2Header
	)

	// Isutcnt
	if header.Isutcnt != 0 && header.Isutcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid v2 isutcnt (%d): must be 0 or equal to typecnt (%d)", header.Isutcnt, header.Typecnt))
	}
	if len(data.UTLocalIndicators) != int(header.Isutcnt) {
		err = append(err, fmt.Errorf("invalid v2 isutcnt: header = %d, data = %d", header.Isutcnt, len(data.UTLocalIndicators)))
	}

	// Isstdcnt
	if header.Isstdcnt != 0 && header.Isstdcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid v2 isstdcnt (%d): must be 0 or equal to typecnt (%d)", header.Isstdcnt, header.Typecnt))
	}
	if len(data.StandardWallIndicators) != int(header.Isstdcnt) {
		err = append(err, fmt.Errorf("invalid v2 isstdcnt: header = %d, data = %d", header.Isstdcnt, len(data.StandardWallIndicators)))
	}

	// Leapcnt
	if len(data.LeapSecondRecords) != int(header.Leapcnt) {
		err = append(err, fmt.Errorf("invalid v2 leapcnt: header = %d, data = %d", header.Leapcnt, len(data.LeapSecondRecords)))
	}

	// Timecnt
	if len(data.TransitionTimes) != int(header.Timecnt) {
		err = append(err, fmt.Errorf("invalid v2 timecnt: header = %d, transition times = %d", header.Timecnt, len(data.TransitionTimes)))
	}
	if times, types := len(data.TransitionTimes), len(data.TransitionTypes); times != types {
		err = append(err, fmt.Errorf("inconsistent v2 transitions: transition times = %d, transition types = %d", times, types))
	}
	err = append(err, validateTransitionTypeIndices("v2+", data.TransitionTypes, header.Typecnt)...)

	// Typecnt
	if header.Typecnt == 0 {
		err = append(err, fmt.Errorf("invalid v2 typecnt: must not be zero"))
	}
	if len(data.LocalTimeTypeRecord) != int(header.Typecnt) {
		err = append(err, fmt.Errorf("invalid v2 typecnt: header = %d, data = %d", header.Typecnt, len(data.LocalTimeTypeRecord)))
	}

	// Charcnt
	if header.Charcnt == 0 {
		err = append(err, fmt.Errorf("invalid v2 charcnt: must not be zero"))
	}
	if len(data.TimeZoneDesignation) != int(header.Charcnt) {
		err = append(err, fmt.Errorf("invalid v2 charcnt: header = %d, data = %d", header.Charcnt, len(data.TimeZoneDesignation)))
	}
	if header.Charcnt > 0 && data.TimeZoneDesignation[len(data.TimeZoneDesignation)-1] != 0 {
		err = append(err, fmt.Errorf("invalid v2 time zone designations: missing null terminator"))
	}
	err = append(err, validateTypeRecords("v2+", data.LocalTimeTypeRecord, data.TimeZoneDesignation)...)
	return err
}

// validateTypeRecords checks the RFC 8536 constraints that apply to
// every local time type record regardless of file version: the UT
// offset range recommendation, and that each designation index points
// at a NUL-terminated string within the designation pool.
func validateTypeRecords(section string, recs []LocalTimeTypeRecord, designations []byte) []error {
	var errs []error
	for i, rec := range recs {
		if rec.Utoff < -89999 || rec.Utoff > 93599 {
			errs = append(errs, fmt.Errorf("invalid %s local time type record %d: utoff %d out of range [-89999, 93599]", section, i, rec.Utoff))
		}
		if int(rec.Idx) >= len(designations) {
			errs = append(errs, fmt.Errorf("invalid %s local time type record %d: idx %d out of bounds (charcnt %d)", section, i, rec.Idx, len(designations)))
			continue
		}
		if !containsNUL(designations[rec.Idx:]) {
			errs = append(errs, fmt.Errorf("invalid %s local time type record %d: designation at idx %d is not NUL-terminated", section, i, rec.Idx))
		}
	}
	return errs
}

// validateTransitionTypeIndices checks that every transition refers to
// a type record that actually exists in the type array.
func validateTransitionTypeIndices(section string, transTypes []uint8, typecnt uint32) []error {
	var errs []error
	for i, idx := range transTypes {
		if uint32(idx) >= typecnt {
			errs = append(errs, fmt.Errorf("invalid %s transition %d: type index %d out of bounds (typecnt %d)", section, i, idx, typecnt))
		}
	}
	return errs
}

func containsNUL(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}
