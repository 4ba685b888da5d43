// Package csvin turns an uploaded schedule sheet into a header and data rows.
package csvin

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a tokenized sheet. Lines holds the 1-based source line of each
// data row.
type Table struct {
	Header []string
	Rows   [][]string
	Lines  []int
}

// Tokenizer reads a sheet from raw upload bytes.
type Tokenizer struct{}

// Tokenize implements the pipeline tokenizer stage.
func (Tokenizer) Tokenize(data []byte) (Table, error) {
	return Parse(bytes.NewReader(data))
}

// Parse decodes r (UTF-8 with or without BOM, UTF-16 with BOM, or Latin-1)
// and reads it as comma-separated values. Short rows are padded to the
// header width and blank rows are dropped.
func Parse(r io.Reader) (Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{}, errors.Wrap(err, "read upload")
	}
	text, err := decode(raw)
	if err != nil {
		return Table{}, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, errors.New("empty file: no header row found")
		}
		return Table{}, errors.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, errors.Wrap(err, "read row")
		}
		line, _ := reader.FieldPos(0)
		if blank(row) {
			continue
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, line)
	}
	if len(t.Rows) == 0 {
		return Table{}, errors.New("file contains no data rows")
	}
	return t, nil
}

func decode(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return nil, errors.Wrap(err, "decode utf-16")
		}
		return out, nil
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw, nil
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode latin-1")
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
