package ruling

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ListSeparator joins the values of list-valued fields into one column.
const ListSeparator = ", "

// Columns is the fixed CSV column order. Every row produced by Row has the
// same length and order.
var Columns = []string{
	"id",
	"rulingNumber",
	"subject",
	"categories",
	"rulingDate",
	"isUsmca",
	"isNafta",
	"collection",
	"relatedRulings",
	"modifiedBy",
	"modifies",
	"revokedBy",
	"revokes",
	"tariffs",
}

// Header returns a copy of Columns suitable for use as the first CSV record.
func Header() []string {
	header := make([]string, len(Columns))
	copy(header, Columns)
	return header
}

// Ruling is a single record from the rulings search API.
type Ruling struct {
	ID           Field `json:"id"`
	RulingNumber Field `json:"rulingNumber"`
	Subject      Field `json:"subject"`
	Categories   Field `json:"categories"`
	RulingDate   Field `json:"rulingDate"`
	IsUSMCA      Field `json:"isUsmca"`
	IsNAFTA      Field `json:"isNafta"`
	Collection   Field `json:"collection"`

	RelatedRulings List `json:"relatedRulings"`
	ModifiedBy     List `json:"modifiedBy"`
	Modifies       List `json:"modifies"`
	RevokedBy      List `json:"revokedBy"`
	Revokes        List `json:"revokes"`
	Tariffs        List `json:"tariffs"`
}

// Row flattens the ruling into len(Columns) strings in column order.
func (r Ruling) Row() []string {
	return []string{
		r.ID.String(),
		r.RulingNumber.String(),
		r.Subject.String(),
		r.Categories.String(),
		r.RulingDate.String(),
		r.IsUSMCA.String(),
		r.IsNAFTA.String(),
		r.Collection.String(),
		r.RelatedRulings.String(),
		r.ModifiedBy.String(),
		r.Modifies.String(),
		r.RevokedBy.String(),
		r.Revokes.String(),
		r.Tariffs.String(),
	}
}

// Field is a scalar value of any JSON type. Strings keep their decoded text,
// numbers and booleans keep their JSON literal, and objects or arrays are
// kept as compact JSON. A missing or null field is empty.
type Field struct {
	value string
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	value, valid, err := scalarText(data)
	if err != nil {
		return err
	}
	f.value, f.valid = value, valid
	return nil
}

// Valid reports whether the field was present and not null.
func (f Field) Valid() bool {
	return f.valid
}

// String returns the column value, "" when the field is absent.
func (f Field) String() string {
	return f.value
}

// List is a list-valued field. Absent or null lists are empty.
type List []string

// UnmarshalJSON implements json.Unmarshaler. A bare scalar is treated as a
// one-element list and null elements are skipped.
func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		value, valid, err := scalarText(data)
		if err != nil {
			return err
		}
		if valid {
			*l = List{value}
		} else {
			*l = nil
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items := make(List, 0, len(raw))
	for _, element := range raw {
		value, valid, err := scalarText(element)
		if err != nil {
			return err
		}
		if valid {
			items = append(items, value)
		}
	}
	*l = items
	return nil
}

// String joins the list with ListSeparator in its original order.
func (l List) String() string {
	return strings.Join(l, ListSeparator)
}

// scalarText renders one JSON value as column text.
func scalarText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", false, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	default:
		return string(data), true, nil
	}
}
