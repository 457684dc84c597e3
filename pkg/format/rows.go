package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/app-sre/explorer/pkg/database"
)

type Output string

const (
	JSON Output = "json"
	YAML Output = "yaml"
)

var _ pflag.Value = (*Output)(nil)

func (o *Output) String() string {
	return string(*o)
}

func (o *Output) Set(s string) error {
	switch Output(strings.ToLower(s)) {
	case JSON, YAML:
		*o = Output(strings.ToLower(s))
		return nil
	default:
		return fmt.Errorf("must be one of: %s, %s", JSON, YAML)
	}
}

func (o *Output) Type() string {
	return "format"
}

// EncodeRows renders query results as a JSON array (indented by two spaces)
// or a YAML sequence, keeping each row's column order. Nothing is written
// when encoding fails.
func EncodeRows(rows []database.Row, output Output) ([]byte, error) {
	if rows == nil {
		rows = []database.Row{}
	}

	switch output {
	case YAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(rows); err != nil {
			return nil, fmt.Errorf("unable to encode rows: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("unable to encode rows: %w", err)
		}
		return buf.Bytes(), nil
	default:
		content, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("unable to encode rows: %w", err)
		}
		return append(content, '\n'), nil
	}
}

func (p *Printer) Rows(rows []database.Row, output Output) error {
	content, err := EncodeRows(rows, output)
	if err != nil {
		return err
	}
	return p.Encoded(content)
}

// Encoded writes content produced by EncodeRows as is.
func (p *Printer) Encoded(content []byte) error {
	if _, err := p.out.Write(content); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
