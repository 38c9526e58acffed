package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field normalization turns raw catalog cells into typed values.
// Every function here is total: malformed input degrades to absence or an
// empty list, so one bad row never fails a request.

// currencyReplacer removes currency symbols and thousands separators from price cells
var currencyReplacer = strings.NewReplacer("$", "", ",", "")

// embeddedURLRegex finds the first http(s) URL inside an unparsable image cell
var embeddedURLRegex = regexp.MustCompile(`https?://[^\s'"]+`)

// listItemCutset is trimmed from each element when a bracketed cell has to be split by hand
const listItemCutset = " \t\r\n'\""

// ParseMoney converts a raw price cell into a non-negative amount.
// Returns false for empty cells, unparsable text, NaN, infinities and negative values.
func ParseMoney(raw string) (float64, bool) {
	s := strings.TrimSpace(currencyReplacer.Replace(strings.TrimSpace(raw)))
	if s == "" {
		return 0, false
	}

	// decimal notation only; ParseFloat would also take hex floats and underscores
	if strings.IndexFunc(s, notDecimalRune) >= 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}

	return value, true
}

func notDecimalRune(r rune) bool {
	return !(r >= '0' && r <= '9') && !strings.ContainsRune(".eE+-", r)
}

// ParseList converts a raw list-like cell into its elements.
//
// Encodings are detected by shape:
//   - "['a', 'b']" is parsed as a quoted list literal; if that fails the
//     brackets are stripped and the body is split on commas, trimming quotes
//     and spaces from each element
//   - "a, b" is split on commas with whitespace trimmed
//   - an empty cell yields an empty list
//
// Empty segments are dropped by both split paths. The result is never nil.
func ParseList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}

	if isBracketed(s) {
		if items, ok := parseListLiteral(s); ok {
			return items
		}
		return splitList(strings.Trim(s, "[]"), listItemCutset)
	}

	return splitList(s, " \t\r\n")
}

// ParseFirstImage extracts the first image URL from a raw image cell
func ParseFirstImage(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if !isBracketed(s) {
		url := strings.Trim(s, `'"`)
		return url, url != ""
	}

	if items, ok := parseListLiteral(s); ok {
		if len(items) == 0 {
			return "", false
		}
		url := strings.Trim(strings.TrimSpace(items[0]), `'"`)
		return url, url != ""
	}

	if url := embeddedURLRegex.FindString(s); url != "" {
		return url, true
	}
	return "", false
}

// isBracketed reports whether s looks like a list literal
func isBracketed(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// splitList splits on commas, trims cutset from each segment and drops empty ones
func splitList(s, cutset string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.Trim(part, cutset)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseListLiteral parses a list of quoted strings such as ['a', "b"].
// Only single or double quoted items are accepted (an optional u prefix is
// tolerated); anything else makes the whole literal invalid. The input is
// never evaluated.
func parseListLiteral(s string) ([]string, bool) {
	p := &literalParser{src: s}

	p.skipSpace()
	if !p.consume('[') {
		return nil, false
	}

	items := []string{}
	p.skipSpace()
	if p.consume(']') {
		return items, p.atEnd()
	}

	for {
		p.skipSpace()
		item, ok := p.quoted()
		if !ok {
			return nil, false
		}
		items = append(items, item)

		p.skipSpace()
		if p.consume(']') {
			break
		}
		if !p.consume(',') {
			return nil, false
		}
		// trailing comma before the closing bracket
		p.skipSpace()
		if p.consume(']') {
			break
		}
	}

	return items, p.atEnd()
}

// literalParser is a cursor over a list literal
type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) consume(b byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) atEnd() bool {
	p.skipSpace()
	return p.pos == len(p.src)
}

// quoted reads one quoted string, decoding simple backslash escapes
func (p *literalParser) quoted() (string, bool) {
	if p.pos < len(p.src) && (p.src[p.pos] == 'u' || p.src[p.pos] == 'U') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", false
	}

	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), true
		case c == '\n':
			return "", false
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", false
			}
			next := p.src[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(next)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}

	// unterminated
	return "", false
}
