package ddl

import (
	"fmt"
	"strings"
)

// patternTokens maps Java/Spark date pattern letters (by run length) to
// strftime directives understood by DuckDB.
var patternTokens = map[string]string{
	"yyyy": "%Y",
	"yy":   "%y",
	"MMMM": "%B",
	"MMM":  "%b",
	"MM":   "%m",
	"M":    "%-m",
	"dd":   "%d",
	"d":    "%-d",
	"HH":   "%H",
	"H":    "%-H",
	"mm":   "%M",
	"ss":   "%S",
	"SSS":  "%g",
	"a":    "%p",
	"EEEE": "%A",
	"EEE":  "%a",
}

// StrftimePattern converts a Java-style date pattern such as "MM/dd/yyyy"
// into the strftime form "%m/%d/%Y". Text in single quotes is copied
// literally; unsupported letters are an error.
func StrftimePattern(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("date pattern is required")
	}
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end == len(runes) {
				return "", fmt.Errorf("unterminated quote in date pattern %q", pattern)
			}
			if end == i+1 {
				b.WriteRune('\'')
			} else {
				b.WriteString(strings.ReplaceAll(string(runes[i+1:end]), "%", "%%"))
			}
			i = end + 1
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			token := string(runes[i:j])
			directive, ok := patternTokens[token]
			if !ok {
				return "", fmt.Errorf("unsupported date pattern token %q in %q", token, pattern)
			}
			b.WriteString(directive)
			i = j
		case r == '%':
			b.WriteString("%%")
			i++
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String(), nil
}
