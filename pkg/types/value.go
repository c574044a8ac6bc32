package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the scalar carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTimestamp
	// KindRaw holds a nested object or array as compact JSON text.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindRaw:
		return "raw"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one field of an archive record. The zero value is Null.
type Value struct {
	kind Kind
	text string
	num  decimal.Decimal
	b    bool
}

func Null() Value { return Value{} }

func String(s string) Value {
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Value{kind: KindTimestamp, text: s}
	}
	return Value{kind: KindString, text: s}
}

func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Raw(text string) Value { return Value{kind: KindRaw, text: text} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload for String and Timestamp values.
func (v Value) Str() (string, bool) {
	if v.kind != KindString && v.kind != KindTimestamp {
		return "", false
	}
	return v.text, true
}

// Time parses a Timestamp value.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v.text)
	return t, err == nil
}

// Text renders the value for a CSV cell. Null renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindNumber:
		return v.num.String()
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return v.text
}

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num.Equal(other.num)
	case KindBool:
		return v.b == other.b
	}
	return v.text == other.text
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Null()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return err
		}
		*v = Raw(compact.String())
	default:
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			return fmt.Errorf("parse number %q: %w", trimmed, err)
		}
		*v = Number(d)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindRaw:
		return []byte(v.text), nil
	}
	return json.Marshal(v.text)
}
