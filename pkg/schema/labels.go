package schema

import (
	"strings"
	"unicode"
)

// TitleCase turns a field name into a label: words are split on underscores,
// dashes, spaces and camelCase boundaries, then capitalised.
//
//	TitleCase("optional_prop")  == "Optional Prop"
//	TitleCase("primaryProperty") == "Primary Property"
func TitleCase(name string) string {
	words := splitWords(name)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func splitWords(name string) []string {
	var (
		words   []string
		current []rune
		prev    rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			prev = 0
			continue
		case prev != 0 && unicode.IsLower(prev) && unicode.IsUpper(r):
			flush()
		case prev != 0 && unicode.IsLetter(prev) && unicode.IsDigit(r):
			flush()
		case prev != 0 && unicode.IsDigit(prev) && unicode.IsLetter(r):
			flush()
		}
		current = append(current, r)
		prev = r
	}
	flush()
	return words
}
