package codec

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Codec serializes the cells of one kind. Parse recognizes raw cell text
// that belongs to the kind; it must only accept text it can fully consume.
type Codec interface {
	Kind() Kind
	Parse(text string) (Cell, bool)
	Encode(c Cell) ([]byte, error)
	Decode(data []byte) (Cell, error)
}

// Registry maps kinds to codecs and fixes the order in which raw text is
// tried during inference. It is built once and passed to whoever needs it.
type Registry struct {
	codecs   map[Kind]Codec
	priority []Kind
}

// NewRegistry returns a registry with the four built-in codecs, inferring in
// the order Integer, Decimal, DateTime, String.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[Kind]Codec, len(Kinds))}
	r.Register(StringCodec{})
	r.Register(IntegerCodec{})
	r.Register(DecimalCodec{})
	r.Register(DateTimeCodec{})
	return r
}

// Register installs c for its kind. Replacing a codec keeps its inference
// position; a new kind is tried just before the String fallback.
func (r *Registry) Register(c Codec) {
	kind := c.Kind()
	if _, exists := r.codecs[kind]; !exists {
		r.priority = insertBeforeFallback(r.priority, kind)
	}
	r.codecs[kind] = c
}

func insertBeforeFallback(priority []Kind, kind Kind) []Kind {
	for i, k := range priority {
		if k == String {
			out := make([]Kind, 0, len(priority)+1)
			out = append(out, priority[:i]...)
			out = append(out, kind)
			return append(out, priority[i:]...)
		}
	}
	return append(priority, kind)
}

// Lookup returns the codec registered for kind.
func (r *Registry) Lookup(kind Kind) (Codec, error) {
	c, ok := r.codecs[kind]
	if !ok {
		return nil, &CodecError{Kind: kind, Op: OpDecode, Err: ErrUnknownKind}
	}
	return c, nil
}

// Infer classifies raw cell text. The first codec in priority order that
// accepts the whole text wins; text nothing accepts is a StringCell.
func (r *Registry) Infer(text string) Cell {
	for _, kind := range r.priority {
		c, ok := r.codecs[kind]
		if !ok {
			continue
		}
		if cell, ok := c.Parse(text); ok {
			return cell
		}
	}
	return StringCell(text)
}

// Encode serializes c with the codec registered for its kind.
func (r *Registry) Encode(c Cell) (string, error) {
	if c == nil {
		return "", encodeError(String, fmt.Errorf("nil cell"))
	}
	codec, ok := r.codecs[c.Kind()]
	if !ok {
		return "", encodeError(c.Kind(), ErrUnknownKind)
	}
	raw, err := codec.Encode(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode restores the native value of a serialized form.
func (r *Registry) Decode(kind Kind, data string) (Cell, error) {
	codec, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, decodeError(kind, "invalid base64: %v", err)
	}
	return codec.Decode(raw)
}

// Serialize infers the kind of raw cell text and encodes it in one step.
func (r *Registry) Serialize(text string) (Kind, string, error) {
	cell := r.Infer(text)
	data, err := r.Encode(cell)
	if err != nil {
		return cell.Kind(), "", err
	}
	return cell.Kind(), data, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
