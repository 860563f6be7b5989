package extractmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnexpectedShape reports JSON input that is neither an array of value
// records nor an object of value records.
var ErrUnexpectedShape = errors.New("extractmap: expected a JSON array or object of values")

// MarshalJSON encodes the map as an array of its values. Keys are not
// written; every value carries its own. For object-shaped output see
// AsObject.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	vals := make([]V, 0, m.Len())
	for v := range m.Iter() {
		vals = append(vals, v)
	}
	return json.Marshal(vals)
}

// AsObject returns a view that encodes the map as a JSON object keyed by
// each value's extracted key, for wire formats that prefer that shape.
func (m *Map[K, V]) AsObject() json.Marshaler {
	return objectView[K, V]{m}
}

type objectView[K comparable, V KeyExtractor[K]] struct {
	m *Map[K, V]
}

func (o objectView[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for v := range o.m.Iter() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(v.ExtractKey())
		if err != nil {
			return nil, fmt.Errorf("extractmap: encoding key: %w", err)
		}
		// Object member names must be strings; non-string keys keep their
		// JSON encoding, quoted.
		if len(kb) == 0 || kb[0] != '"' {
			kb = []byte(strconv.Quote(string(kb)))
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("extractmap: encoding value: %w", err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either wire shape: an array of value records, or
// an object whose member names are ignored because each value's extracted
// key is authoritative. Decoded values are inserted through the normal
// insert path, so duplicated keys resolve last-writer-wins.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	lead, ok := firstByte(data)
	if !ok {
		return ErrUnexpectedShape
	}
	switch lead {
	case 'n': // null, by convention a no-op
		return nil
	case '[':
		var vals []V
		if err := json.Unmarshal(data, &vals); err != nil {
			return fmt.Errorf("extractmap: decoding value sequence: %w", err)
		}
		for _, v := range vals {
			m.Insert(v)
		}
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("extractmap: decoding object: %w", err)
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return fmt.Errorf("extractmap: decoding object key: %w", err)
			}
			var v V
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("extractmap: decoding value: %w", err)
			}
			m.Insert(v)
		}
		return nil
	default:
		return fmt.Errorf("%w: input starts with %q", ErrUnexpectedShape, lead)
	}
}

func firstByte(data []byte) (byte, bool) {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, true
	}
	return 0, false
}
