package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list plus the designated primary key.
// Column order is fixed at table creation and determines on-disk field
// order, so JSON round-trips must preserve it; stock map decoding would
// not, hence the custom (Un)MarshalJSON below.
type Schema struct {
	Cols       []Column
	PrimaryKey string
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColPos returns the position of a column in schema order, or -1.
func (s Schema) ColPos(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// ColType returns the declared type of a column.
func (s Schema) ColType(name string) (ColumnType, bool) {
	if i := s.ColPos(name); i >= 0 {
		return s.Cols[i].Type, true
	}
	return 0, false
}

// ColumnNames returns the column names in schema order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Cols))
	for i := range s.Cols {
		names[i] = s.Cols[i].Name
	}
	return names
}

// DecodeRow coerces a textual row (schema order) to typed values.
func (s Schema) DecodeRow(fields []string) ([]any, error) {
	if len(fields) != len(s.Cols) {
		return nil, fmt.Errorf("%w: row has %d fields, schema has %d",
			ErrTypeConversion, len(fields), len(s.Cols))
	}
	out := make([]any, len(fields))
	for i, f := range fields {
		v, err := Coerce(f, s.Cols[i].Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", s.Cols[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// IsTombstone reports whether a raw row is an all-empty deleted slot.
// A live row whose str/char fields are all genuinely empty strings is
// indistinguishable from a tombstone: it vanishes from scans while its
// primary-key index entry stays behind. Callers that need such rows
// visible must store a sentinel value in at least one field.
func IsTombstone(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// MarshalJSON emits {"columns": {...}, "primary_key": "..."} with the
// columns object in schema order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"columns":{`)
	for i, c := range s.Cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		tag, err := json.Marshal(c.Type.String())
		if err != nil {
			return nil, err
		}
		buf.Write(tag)
	}
	buf.WriteString(`},"primary_key":`)
	pk, err := json.Marshal(s.PrimaryKey)
	if err != nil {
		return nil, err
	}
	buf.Write(pk)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("flatbase: malformed schema JSON: key %v", keyTok)
		}

		switch key {
		case "columns":
			if err := expectDelim(dec, '{'); err != nil {
				return err
			}
			s.Cols = s.Cols[:0]
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return err
				}
				name, ok := nameTok.(string)
				if !ok {
					return fmt.Errorf("flatbase: malformed schema JSON: column %v", nameTok)
				}
				var tag string
				if err := dec.Decode(&tag); err != nil {
					return err
				}
				t, err := ParseType(tag)
				if err != nil {
					return err
				}
				s.Cols = append(s.Cols, Column{Name: name, Type: t})
			}
			if err := expectDelim(dec, '}'); err != nil {
				return err
			}
		case "primary_key":
			if err := dec.Decode(&s.PrimaryKey); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("flatbase: malformed schema JSON: expected %q, got %v", want, tok)
	}
	return nil
}
