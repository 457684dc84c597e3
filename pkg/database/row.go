package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Row is a single result row. Columns keep the order the database returned
// them in, and both encoders preserve it.
type Row struct {
	Columns []string
	Values  []any
}

func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("unable to marshal column name: %w", err)
		}
		value, err := json.Marshal(jsonValue(r.Values[i]))
		if err != nil {
			return nil, fmt.Errorf("unable to marshal column %s: %w", c, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (r Row) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for i, c := range r.Columns {
		key := &yaml.Node{}
		if err := key.Encode(c); err != nil {
			return nil, fmt.Errorf("unable to marshal column name: %w", err)
		}
		value := &yaml.Node{}
		if err := value.Encode(r.Values[i]); err != nil {
			return nil, fmt.Errorf("unable to marshal column %s: %w", c, err)
		}

		node.Content = append(node.Content, key, value)
	}

	return node, nil
}

// jsonValue spells out non-finite floats, which JSON has no literal for.
func jsonValue(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
	}
	return v
}
