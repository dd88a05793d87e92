package tzif

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Data is the fully decoded content of a TZif file: the mandatory v1
// header and body, and, for v2+ files, the wide-time header, body, and
// POSIX-TZ footer. This is the component-A output contract: the
// zoneinfo builder consumes Data and never touches a Reader itself.
type Data struct {
	Version Version

	V1Missing bool
	V1Header  Header
	V1Data    V1DataBlock

	V2Header Header
	V2Data   V2DataBlock
	V2Footer Footer
}

// Encode writes d back out in TZif wire format. Used by tests; tzcore
// itself never compiles or rewrites TZif data as part of normal zone
// resolution.
func (d Data) Encode(w io.Writer) error {
	if !d.V1Missing {
		if err := d.V1Header.Write(w); err != nil {
			return fmt.Errorf("write v1 header: %w", err)
		}
		if err := d.V1Data.Write(w); err != nil {
			return fmt.Errorf("write v1 data: %w", err)
		}
	}

	if d.V2Header.Version != d.Version {
		return fmt.Errorf("version mismatch: file is %v and v2+ header is %v", d.Version, d.V2Header.Version)
	}

	if d.Version >= V2 {
		if err := d.V2Header.Write(w); err != nil {
			return fmt.Errorf("write v2 header: %w", err)
		}
		if err := d.V2Data.Write(w); err != nil {
			return fmt.Errorf("write v2 data: %w", err)
		}
		if err := d.V2Footer.Write(w); err != nil {
			return fmt.Errorf("write v2 footer: %w", err)
		}
	}

	return nil
}

// DecodeData reads and validates a TZif file from r.
//
// A version octet other than V1/V2/V3/V4 is not fatal: it is logged as
// a structured warning and treated as V2 framing, since every version
// beyond V1 shares the same wide-time body layout. All other failures
// (bad magic, truncation, inconsistent counts) are returned as errors.
func DecodeData(r io.Reader) (Data, error) {
	var d Data
	h, err := ReadHeader(r)
	if err != nil {
		return d, fmt.Errorf("read header: %w", err)
	}

	// Strictly speaking, each TZif file needs a V1 header, but readers
	// are expected to be lenient about a bare v2+ file.
	d.V1Missing = h.Version != V1
	if !d.V1Missing {
		d.Version = V1
		d.V1Header = h
		d.V1Data, err = ReadV1DataBlock(r, h)
		if err != nil {
			return d, fmt.Errorf("read v1 data block: %w", err)
		}

		h, err = ReadHeader(r)
		if errors.Is(err, io.EOF) {
			// No v2+ data: a genuine v1-only file.
			return d, Validate(d)
		}
		if err != nil {
			return d, fmt.Errorf("read v2+ header: %w", err)
		}
	}

	switch h.Version {
	case V2, V3, V4:
		// recognized
	default:
		logrus.WithFields(logrus.Fields{
			"component": "tzif",
			"version":   int(h.Version),
		}).Warn("tzif: unrecognized version byte, decoding as v2 body")
		h.Version = V2
	}

	d.V2Header = h
	d.Version = h.Version

	d.V2Data, err = ReadV2DataBlock(r, h)
	if err != nil {
		return d, fmt.Errorf("read v2+ data block: %w", err)
	}
	d.V2Footer, err = ReadFooter(r)
	if err != nil {
		return d, fmt.Errorf("read footer: %w", err)
	}

	return d, Validate(d)
}
