package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its letter/digit runs with '-'.
// Common symbols in skill names are spelled out so "C++" and "C#" stay distinct.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		var word string
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		case r == '+':
			word = "plus"
		case r == '#':
			word = "sharp"
		default:
			pendingDash = true
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(word)
		pendingDash = true
	}
	return b.String()
}

// Words splits text into lowercase tokens on anything that is not a letter,
// digit, '+' or '#'.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// ContainsWord reports whether phrase occurs in text on word boundaries, ignoring case.
// Multi-word phrases must appear as consecutive tokens.
func ContainsWord(text, phrase string) bool {
	needle := Words(phrase)
	if len(needle) == 0 {
		return false
	}
	hay := Words(text)
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j, w := range needle {
			if hay[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
