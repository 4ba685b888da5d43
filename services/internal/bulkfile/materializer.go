// Package bulkfile writes insert artifacts to delimited files and pairs each
// file with the COPY statement that loads it.
package bulkfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/telescope-ops/obsadmin/services/internal/models"
)

const (
	fieldDelimiter = ';'
	fileMode       = 0o640
)

// Load describes one materialized table file.
type Load struct {
	Table     string      `json:"table"`
	Path      string      `json:"path"`
	Columns   []string    `json:"columns"`
	Statement string      `json:"statement"`
	Rows      int         `json:"rows"`
	Size      int64       `json:"size_bytes"`
	ModTime   time.Time   `json:"mod_time"`
	Mode      os.FileMode `json:"mode"`
}

// StdinStatement is Statement reading from the client connection instead
// of the server filesystem.
func (l Load) StdinStatement() string {
	return copyStatement(l.Table, l.Columns, "STDIN")
}

// Materializer writes bulk-load files under a directory.
type Materializer struct {
	dir string
}

// New returns a Materializer rooted at dir, creating it if needed.
func New(dir string) (*Materializer, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "obsadmin-bulk")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create bulk dir")
	}
	return &Materializer{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (m *Materializer) Dir() string { return m.dir }

// Write serializes records of one table to a new file. All records must
// belong to the same table.
func (m *Materializer) Write(semester string, records []models.PositionalRecord) (Load, error) {
	if len(records) == 0 {
		return Load{}, errors.New("no records to write")
	}
	table := records[0].TableName
	columns := records[0].Columns
	name := fmt.Sprintf("%s_%s_%s.csv", shortName(table), semester, uuid.NewString())
	path := filepath.Join(m.dir, name)

	if err := writeFile(path, columns, records); err != nil {
		_ = os.Remove(path)
		return Load{}, errors.Wrapf(err, "write %s", table)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Load{}, errors.Wrapf(err, "stat %s", path)
	}
	if info.Size() == 0 {
		return Load{}, errors.Errorf("write %s: empty file", path)
	}

	return Load{
		Table:     table,
		Path:      path,
		Columns:   columns,
		Statement: copyStatement(table, columns, quote(path, '\'')),
		Rows:      len(records),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Mode:      info.Mode().Perm(),
	}, nil
}

func writeFile(path string, columns []string, records []models.PositionalRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	w.WriteString(strings.Join(columns, string(fieldDelimiter)))
	w.WriteByte('\n')
	for _, rec := range records {
		if rec.TableName != records[0].TableName {
			f.Close()
			return errors.Errorf("mixed tables %s and %s", records[0].TableName, rec.TableName)
		}
		for i, v := range rec.Fields {
			if i > 0 {
				w.WriteByte(fieldDelimiter)
			}
			w.WriteString(formatField(v))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatField renders numbers bare and strings enclosed in double quotes
// with embedded quotes doubled. nil becomes an empty (NULL) field.
func formatField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return quote(t, '"')
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return quote(fmt.Sprint(t), '"')
	}
}

func quote(s string, q byte) string {
	qs := string(q)
	return qs + strings.ReplaceAll(s, qs, qs+qs) + qs
}

func copyStatement(table string, columns []string, source string) string {
	return fmt.Sprintf(
		"COPY %s (%s) FROM %s WITH (FORMAT csv, DELIMITER '%c', QUOTE '\"', HEADER true)",
		table, strings.Join(columns, ", "), source, fieldDelimiter,
	)
}

func shortName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}

// ReadFile reads a materialized file back into its header and rows.
func ReadFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = fieldDelimiter
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.Errorf("%s: missing header", path)
	}
	return records[0], records[1:], nil
}
