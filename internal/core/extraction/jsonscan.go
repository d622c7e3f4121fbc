package extraction

import "strings"

type scanState int

const (
	outside scanState = iota
	inObject
	inString
	escaped
)

// stripFence removes wrapping code-fence backticks and surrounding whitespace.
func stripFence(s string) string {
	return strings.Trim(s, "` \t\r\n")
}

// firstObject returns the first balanced {...} in s. Braces inside JSON string
// literals are ignored, escapes included. ok is false when the first object
// never closes or s has no '{'.
func firstObject(s string) (obj string, ok bool) {
	state := outside
	depth, start := 0, -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case outside:
			if c == '{' {
				state, depth, start = inObject, 1, i
			}
		case inObject:
			switch c {
			case '"':
				state = inString
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		case inString:
			switch c {
			case '\\':
				state = escaped
			case '"':
				state = inObject
			}
		case escaped:
			state = inString
		}
	}
	return "", false
}
