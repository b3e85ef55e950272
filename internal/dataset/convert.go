package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// BlockLines is the stride of the plain-text source layout: one category
// line followed by up to ten question lines.
const BlockLines = 11

// ParseBlocks reads the plain-text layout the question table was generated
// from. The input is split into BlockLines-line blocks; within a block,
// blank lines are dropped, the first remaining line is the category and the
// rest are its questions. Empty blocks are skipped.
func ParseBlocks(r io.Reader) ([]QuestionRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanAnyLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	var records []QuestionRecord
	for start := 0; start < len(lines); start += BlockLines {
		end := min(start+BlockLines, len(lines))

		var block []string
		for _, line := range lines[start:end] {
			if line = strings.TrimSpace(line); line != "" {
				block = append(block, line)
			}
		}
		if len(block) == 0 {
			continue
		}

		category := strings.TrimPrefix(block[0], utf8BOM)
		for _, q := range block[1:] {
			records = append(records, QuestionRecord{Category: category, Question: q})
		}
	}

	return records, nil
}

// scanAnyLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanAnyLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r' at the end of the buffer may be the first half of "\r\n".
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ConvertFile reads a block-layout text file and writes it as a question table.
func ConvertFile(textPath, csvPath string) (int, error) {
	f, err := os.Open(textPath)
	if err != nil {
		return 0, fmt.Errorf("opening text: %w", err)
	}
	defer f.Close()

	records, err := ParseBlocks(f)
	if err != nil {
		return 0, err
	}
	if err := Save(csvPath, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
