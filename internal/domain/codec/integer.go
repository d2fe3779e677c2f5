package codec

import (
	"encoding/binary"
	"strconv"
	"strings"
)

const integerWidth = 8

// IntegerCodec stores an int64 as 8 little-endian bytes.
type IntegerCodec struct{}

func (IntegerCodec) Kind() Kind { return Integer }

// Parse accepts an optionally signed base-10 integer within int64 range.
func (IntegerCodec) Parse(text string) (Cell, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return nil, false
	}
	return IntegerCell(n), true
}

func (IntegerCodec) Encode(c Cell) ([]byte, error) {
	n, ok := c.(IntegerCell)
	if !ok {
		return nil, encodeError(Integer, ErrKindMismatch)
	}
	buf := make([]byte, integerWidth)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return buf, nil
}

func (IntegerCodec) Decode(data []byte) (Cell, error) {
	if len(data) != integerWidth {
		return nil, decodeError(Integer, "want %d bytes, got %d", integerWidth, len(data))
	}
	return IntegerCell(int64(binary.LittleEndian.Uint64(data))), nil
}
