package extractor

import "strings"

// CleanText strips newlines and spaces from both ends of s, one character
// per pass in the order leading newline, trailing newline, leading space,
// trailing space. Tabs and other whitespace are left alone.
func CleanText(s string) string {
	for {
		switch {
		case strings.HasPrefix(s, "\n"):
			s = s[1:]
		case strings.HasSuffix(s, "\n"):
			s = s[:len(s)-1]
		case strings.HasPrefix(s, " "):
			s = s[1:]
		case strings.HasSuffix(s, " "):
			s = s[:len(s)-1]
		default:
			return s
		}
	}
}
