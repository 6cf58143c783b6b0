// Package optrows finds configuration ("option") rows in plain-text SQL
// dumps and re-emits selected rows as standalone INSERT statements.
//
// A row is a tuple of the shape (id, 'name', 'value', 'autoload'). String
// fields may use either backslash escapes (mysqldump) or doubled quotes
// (phpMyAdmin); serialized values containing commas, parentheses and
// newlines are matched as a whole.
package optrows

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotMatched is returned when no row satisfies a lookup. Callers treat it
// as informational rather than a failure.
var ErrNotMatched = errors.New("no matching option row")

// Row is one option tuple.
type Row struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Autoload string `json:"autoload"`
	// Raw is the tuple exactly as it appeared in the dump.
	Raw string `json:"-"`
}

// Filter narrows Scan results.
type Filter struct {
	// Keywords are case-insensitive substrings; a row is kept when its name
	// contains any of them. Empty keeps every row.
	Keywords []string
	// SkipTransient drops cache-like rows (transients and sessions).
	SkipTransient bool
}

const sqlString = `'((?:[^'\\]|\\.|'')*)'`

var (
	tupleRe  = regexp.MustCompile(`\((\d+)\s*,\s*` + sqlString + `\s*,\s*` + sqlString + `\s*,\s*'(?i:(yes|no|on|off|auto))'\s*\)`)
	insertRe = regexp.MustCompile("(?i)INSERT\\s+INTO\\s+`?([A-Za-z0-9_$]+)`?")
)

var transientMarkers = []string{"transient", "wc_session"}

// Scan reads an entire dump and returns every option row that passes f, in
// file order. Invalid UTF-8 is dropped rather than rejected.
func Scan(r io.Reader, f Filter) ([]Row, error) {
	text, err := readText(r)
	if err != nil {
		return nil, err
	}
	return scanText(text, f), nil
}

// Names returns the names of rows found inside INSERT statements that target
// table, in file order.
func Names(r io.Reader, table string, f Filter) ([]string, error) {
	text, err := readText(r)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, block := range insertBlocks(text, table) {
		for _, row := range scanText(block, f) {
			names = append(names, row.Name)
		}
	}
	return names, nil
}

// Find returns the first row named exactly name.
func Find(rows []Row, name string) (Row, error) {
	for _, r := range rows {
		if r.Name == name {
			return r, nil
		}
	}
	return Row{}, fmt.Errorf("%s: %w", name, ErrNotMatched)
}

// InsertStatement renders row as a standalone INSERT into table.
func InsertStatement(table string, row Row) string {
	return fmt.Sprintf("INSERT INTO `%s` (`option_id`, `option_name`, `option_value`, `autoload`) VALUES\n%s;\n", table, row.Raw)
}

// WriteInserts writes one INSERT statement per row.
func WriteInserts(w io.Writer, table string, rows []Row) error {
	for _, r := range rows {
		if _, err := io.WriteString(w, InsertStatement(table, r)); err != nil {
			return err
		}
	}
	return nil
}

func readText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read dump: %w", err)
	}
	return strings.ToValidUTF8(string(b), ""), nil
}

func scanText(text string, f Filter) []Row {
	var rows []Row
	for _, m := range tupleRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		row := Row{
			ID:       id,
			Name:     unquote(m[2]),
			Value:    unquote(m[3]),
			Autoload: strings.ToLower(m[4]),
			Raw:      m[0],
		}
		if keep(row.Name, f) {
			rows = append(rows, row)
		}
	}
	return rows
}

func keep(name string, f Filter) bool {
	lower := strings.ToLower(name)
	if f.SkipTransient {
		for _, t := range transientMarkers {
			if strings.Contains(lower, t) {
				return false
			}
		}
	}
	if len(f.Keywords) == 0 {
		return true
	}
	for _, k := range f.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// insertBlocks returns the text of every INSERT statement targeting table.
// A block runs until the next INSERT statement or the end of the dump.
func insertBlocks(text, table string) []string {
	locs := insertRe.FindAllStringSubmatchIndex(text, -1)
	var out []string
	for i, loc := range locs {
		if !strings.EqualFold(text[loc[2]:loc[3]], table) {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, text[loc[1]:end])
	}
	return out
}

// unquote decodes MySQL string escapes and doubled quotes.
func unquote(s string) string {
	if !strings.ContainsAny(s, `\'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(s[i])
			}
		case c == '\'' && i+1 < len(s) && s[i+1] == '\'':
			b.WriteByte('\'')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
