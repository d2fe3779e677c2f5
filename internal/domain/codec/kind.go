// Package codec converts spreadsheet cells between their typed form and the
// serialized form that is stored and compared when linking records.
package codec

import "fmt"

// Kind tags a value with the codec that serializes it.
type Kind int

// Recognized kinds. The zero value is String so that an unset kind decodes
// as text.
const (
	String Kind = iota
	Integer
	Decimal
	DateTime
)

// Kinds lists every recognized kind in declaration order.
var Kinds = []Kind{String, Integer, Decimal, DateTime}

var kindNames = map[Kind]string{
	String:   "string",
	Integer:  "integer",
	Decimal:  "decimal",
	DateTime: "datetime",
}

// String returns the storage name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a storage name back to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return String, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
