package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CustomField is one user-defined key/value pair on a trade, account or
// strategy form.
type CustomField struct {
	Key   string
	Value string
}

// CustomFields is an insertion-ordered key/value mapping. The form order
// carries UI meaning, so it round-trips JSON as an object whose keys keep the
// order they were written in, which a plain Go map would not.
type CustomFields []CustomField

func (cf CustomFields) MarshalJSON() ([]byte, error) {
	if cf == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range cf {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cf *CustomFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil { // JSON null
		*cf = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("custom_fields: expected object, got %v", tok)
	}

	out := CustomFields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("custom_fields: non-string key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		var value string
		switch v := valTok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = strconv.FormatBool(v)
		case nil:
			value = ""
		default:
			return fmt.Errorf("custom_fields: unsupported value for key %q", key)
		}
		out = append(out, CustomField{Key: key, Value: value})
	}

	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	*cf = out
	return nil
}
