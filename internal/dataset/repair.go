package dataset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RepairText undoes UTF-8 text that was mis-decoded as Windows-1252, such
// as "â€™" standing in for a right single quote. Each maximal run of
// non-ASCII characters that Windows-1252 can encode is repaired on its own,
// and only when its bytes form valid UTF-8, so correct curly quotes and
// accented letters next to a garbled sequence are left alone.
func RepairText(s string) string {
	if isASCII(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	var raw []byte
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if utf8.Valid(raw) {
			b.Write(raw)
		} else {
			b.WriteString(s[start:end])
		}
		start = -1
		raw = raw[:0]
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= utf8.RuneSelf && size > 1 {
			if c, ok := charmap.Windows1252.EncodeRune(r); ok {
				if start < 0 {
					start = i
				}
				raw = append(raw, c)
				i += size
				continue
			}
		}
		flush(i)
		b.WriteString(s[i : i+size])
		i += size
	}
	flush(len(s))

	return b.String()
}

// HasMojibake reports whether RepairText would change s.
func HasMojibake(s string) bool {
	return RepairText(s) != s
}

// Repair returns a copy of records with encoding artifacts repaired in both
// fields, and the number of records that changed.
func Repair(records []QuestionRecord) ([]QuestionRecord, int) {
	out := make([]QuestionRecord, len(records))
	changed := 0
	for i, rec := range records {
		fixed := QuestionRecord{
			Category: RepairText(rec.Category),
			Question: RepairText(rec.Question),
		}
		if fixed != rec {
			changed++
		}
		out[i] = fixed
	}
	return out, changed
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
