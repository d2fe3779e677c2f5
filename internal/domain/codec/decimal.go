package codec

import (
	"encoding/binary"
	"errors"
	"math/big"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

const (
	decimalWidth    = 16
	decimalMaxScale = 28
	decimalMaxBits  = 96

	decimalScaleShift = 16
	decimalScaleMask  = 0x00FF0000
	decimalSignMask   = 0x80000000
)

// rePlainDecimal matches decimal literals without exponent notation.
var rePlainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// DecimalCodec stores a decimal in 16 bytes: a 96-bit coefficient as three
// little-endian 32-bit words (lo, mid, hi) followed by a flags word holding
// the scale in bits 16-23 and the sign in bit 31.
type DecimalCodec struct{}

func (DecimalCodec) Kind() Kind { return Decimal }

// Parse accepts plain decimal literals whose coefficient fits in 96 bits and
// whose scale is at most 28.
func (DecimalCodec) Parse(text string) (Cell, bool) {
	s := strings.TrimSpace(text)
	if !rePlainDecimal.MatchString(s) {
		return nil, false
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, false
	}
	if checkDecimal(d) != nil {
		return nil, false
	}
	return DecimalCell{Value: d}, true
}

func (DecimalCodec) Encode(c Cell) ([]byte, error) {
	dc, ok := c.(DecimalCell)
	if !ok {
		return nil, encodeError(Decimal, ErrKindMismatch)
	}
	if dc.Value == nil {
		return nil, encodeError(Decimal, errors.New("nil decimal"))
	}
	if err := checkDecimal(dc.Value); err != nil {
		return nil, encodeError(Decimal, err)
	}

	coeff := dc.Value.Coeff.MathBigInt()
	be := coeff.FillBytes(make([]byte, 12))

	buf := make([]byte, decimalWidth)
	binary.LittleEndian.PutUint32(buf[0:4], binary.BigEndian.Uint32(be[8:12]))
	binary.LittleEndian.PutUint32(buf[4:8], binary.BigEndian.Uint32(be[4:8]))
	binary.LittleEndian.PutUint32(buf[8:12], binary.BigEndian.Uint32(be[0:4]))

	flags := uint32(-dc.Value.Exponent) << decimalScaleShift
	if dc.Value.Negative {
		flags |= decimalSignMask
	}
	binary.LittleEndian.PutUint32(buf[12:16], flags)
	return buf, nil
}

func (DecimalCodec) Decode(data []byte) (Cell, error) {
	if len(data) != decimalWidth {
		return nil, decodeError(Decimal, "want %d bytes, got %d", decimalWidth, len(data))
	}

	flags := binary.LittleEndian.Uint32(data[12:16])
	if flags&^(decimalScaleMask|decimalSignMask) != 0 {
		return nil, decodeError(Decimal, "reserved flag bits set: %#x", flags)
	}
	scale := int32((flags & decimalScaleMask) >> decimalScaleShift)
	if scale > decimalMaxScale {
		return nil, decodeError(Decimal, "scale %d exceeds %d", scale, decimalMaxScale)
	}

	be := make([]byte, 12)
	binary.BigEndian.PutUint32(be[0:4], binary.LittleEndian.Uint32(data[8:12]))
	binary.BigEndian.PutUint32(be[4:8], binary.LittleEndian.Uint32(data[4:8]))
	binary.BigEndian.PutUint32(be[8:12], binary.LittleEndian.Uint32(data[0:4]))

	coeff := new(apd.BigInt).SetMathBigInt(new(big.Int).SetBytes(be))
	d := apd.NewWithBigInt(coeff, -scale)
	d.Negative = flags&decimalSignMask != 0
	return DecimalCell{Value: d}, nil
}

// checkDecimal verifies d fits the fixed-width layout.
func checkDecimal(d *apd.Decimal) error {
	if d.Form != apd.Finite {
		return errors.New("decimal must be finite")
	}
	if d.Exponent > 0 || -d.Exponent > decimalMaxScale {
		return errors.New("decimal scale out of range")
	}
	if d.Coeff.Sign() < 0 || d.Coeff.BitLen() > decimalMaxBits {
		return errors.New("decimal coefficient exceeds 96 bits")
	}
	return nil
}
