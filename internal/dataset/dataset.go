package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header is the expected column layout of a question table.
var Header = []string{"category", "question"}

const utf8BOM = "\ufeff"

// QuestionRecord is one (category, question) pair from the dataset.
type QuestionRecord struct {
	Category string `json:"category"`
	Question string `json:"question"`
}

// ParseError reports a malformed header or row. Line is 1-based and
// counts the header as line 1.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads a question table from path.
func Load(path string) ([]QuestionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

// Parse reads a comma-delimited question table with a `category,question`
// header. Records are returned in source order.
func Parse(r io.Reader) ([]QuestionRecord, error) {
	reader := csv.NewReader(r)
	// Field counts are checked below so the error carries our own message.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Msg: "missing header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records []QuestionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		line, _ := reader.FieldPos(0)
		if len(row) != len(Header) {
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, got %d", len(Header), len(row)),
			}
		}
		if row[0] == "" {
			return nil, &ParseError{Line: line, Msg: "empty category"}
		}
		if row[1] == "" {
			return nil, &ParseError{Line: line, Msg: "empty question"}
		}

		records = append(records, QuestionRecord{Category: row[0], Question: row[1]})
	}

	return records, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Header) {
		return &ParseError{
			Line: 1,
			Msg:  fmt.Sprintf("header must have %d columns, got %d", len(Header), len(header)),
		}
	}
	for i, want := range Header {
		got := header[i]
		if i == 0 {
			got = strings.TrimPrefix(got, utf8BOM)
		}
		if got != want {
			return &ParseError{
				Line: 1,
				Msg:  fmt.Sprintf("header column %d must be %q, got %q", i+1, want, got),
			}
		}
	}
	return nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: "malformed row", Err: pe.Err}
	}
	return fmt.Errorf("reading dataset: %w", err)
}

// Write serializes records with a header row using standard CSV quoting.
func Write(w io.Writer, records []QuestionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		if err := writer.Write([]string{rec.Category, rec.Question}); err != nil {
			return fmt.Errorf("writing record %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Save writes records to path, replacing any existing file.
func Save(path string, records []QuestionRecord) error {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	return nil
}
