package codec

import "unicode/utf8"

// StringCodec stores text as its UTF-8 bytes.
type StringCodec struct{}

func (StringCodec) Kind() Kind { return String }

// Parse accepts any text.
func (StringCodec) Parse(text string) (Cell, bool) {
	return StringCell(text), true
}

func (StringCodec) Encode(c Cell) ([]byte, error) {
	s, ok := c.(StringCell)
	if !ok {
		return nil, encodeError(String, ErrKindMismatch)
	}
	return []byte(s), nil
}

func (StringCodec) Decode(data []byte) (Cell, error) {
	if !utf8.Valid(data) {
		return nil, decodeError(String, "invalid UTF-8")
	}
	return StringCell(data), nil
}
