package codec

import (
	"encoding/binary"
	"strings"
	"time"
)

const (
	dateTimeWidth     = 16
	maxZoneOffsetSecs = 18 * 60 * 60
)

// dateTimeLayouts are tried in order. Day-first layouts precede month-first
// ones, so "03/04/2024" is the 3rd of April.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"1/2/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// DateTimeCodec stores a time as 16 bytes: int64 unix seconds, int32
// nanoseconds and int32 zone offset in seconds, all little-endian.
type DateTimeCodec struct{}

func (DateTimeCodec) Kind() Kind { return DateTime }

// Parse accepts the layouts in dateTimeLayouts. Layouts without a zone are
// read as UTC.
func (DateTimeCodec) Parse(text string) (Cell, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeCell{Time: t}, true
		}
	}
	return nil, false
}

func (DateTimeCodec) Encode(c Cell) ([]byte, error) {
	dc, ok := c.(DateTimeCell)
	if !ok {
		return nil, encodeError(DateTime, ErrKindMismatch)
	}
	_, offset := dc.Time.Zone()

	buf := make([]byte, dateTimeWidth)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(dc.Time.Unix()))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(dc.Time.Nanosecond())))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(int32(offset)))
	return buf, nil
}

func (DateTimeCodec) Decode(data []byte) (Cell, error) {
	if len(data) != dateTimeWidth {
		return nil, decodeError(DateTime, "want %d bytes, got %d", dateTimeWidth, len(data))
	}
	secs := int64(binary.LittleEndian.Uint64(data[0:8]))
	nanos := int32(binary.LittleEndian.Uint32(data[8:12]))
	offset := int32(binary.LittleEndian.Uint32(data[12:16]))

	if nanos < 0 || nanos >= int32(time.Second) {
		return nil, decodeError(DateTime, "nanoseconds out of range: %d", nanos)
	}
	if offset < -maxZoneOffsetSecs || offset > maxZoneOffsetSecs {
		return nil, decodeError(DateTime, "zone offset out of range: %d", offset)
	}

	t := time.Unix(secs, int64(nanos))
	if offset == 0 {
		t = t.UTC()
	} else {
		t = t.In(time.FixedZone("", int(offset)))
	}
	return DateTimeCell{Time: t}, nil
}
