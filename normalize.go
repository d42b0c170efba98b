package main

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText is the single normalization shared by the classifier and
// every label comparison:
//   - decompose and drop combining marks (É -> E, Ç -> C)
//   - upper-case
//   - collapse any whitespace run, unicode spaces included, to one space
//   - trim
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}

// ExtractCode reduces a code-like label to its digits, with leading zeros
// dropped and left-padded to three, so "Q7", "007" and "7" compare equal.
// Labels without digits yield "".
func ExtractCode(code string) string {
	var digits strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := strings.TrimLeft(digits.String(), "0")
	if digits.Len() == 0 {
		return ""
	}
	for len(d) < 3 {
		d = "0" + d
	}
	return d
}

// CodeNumber parses ExtractCode(code) as an int.
func CodeNumber(code string) (int, bool) {
	d := ExtractCode(code)
	if d == "" {
		return 0, false
	}
	n, err := strconv.Atoi(d)
	if err != nil {
		return 0, false
	}
	return n, true
}
