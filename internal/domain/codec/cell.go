package codec

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Cell is a sealed sum type holding the native value of one spreadsheet cell.
// Only StringCell, IntegerCell, DecimalCell and DateTimeCell implement it.
type Cell interface {
	// Kind returns the discriminant of the variant.
	Kind() Kind
	// Text renders the native value for humans.
	Text() string

	cell()
}

// StringCell is free text, the catch-all kind.
type StringCell string

func (StringCell) Kind() Kind     { return String }
func (c StringCell) Text() string { return string(c) }
func (StringCell) cell()          {}

// IntegerCell is a whole number that fits in 64 bits.
type IntegerCell int64

func (IntegerCell) Kind() Kind { return Integer }
func (c IntegerCell) Text() string {
	return formatInt(int64(c))
}
func (IntegerCell) cell() {}

// DecimalCell is a base-10 number with an explicit scale, so "1.50" keeps
// both digits after the point.
type DecimalCell struct {
	Value *apd.Decimal
}

func (DecimalCell) Kind() Kind { return Decimal }
func (c DecimalCell) Text() string {
	if c.Value == nil {
		return "0"
	}
	return c.Value.Text('f')
}
func (DecimalCell) cell() {}

// DateTimeCell is a point in time with the zone offset it was written in.
type DateTimeCell struct {
	Time time.Time
}

func (DateTimeCell) Kind() Kind { return DateTime }
func (c DateTimeCell) Text() string {
	return c.Time.Format(time.RFC3339Nano)
}
func (DateTimeCell) cell() {}
