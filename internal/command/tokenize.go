package command

import (
	"errors"
	"strings"
	"unicode"
)

var ErrUnterminatedEscape = errors.New("command: trailing escape character")

// Tokenize splits text on whitespace. A double-quoted run is one token and may
// contain whitespace; "" yields an empty token. A backslash takes the next
// character literally, except \n which is a newline. An unterminated quote
// runs to the end of the text.
func Tokenize(text string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inToken bool
		quoted  bool
		escaped bool
	)
	for _, r := range text {
		switch {
		case escaped:
			if r == 'n' {
				r = '\n'
			}
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inToken = true
		case r == '"':
			quoted = !quoted
			inToken = true
		case !quoted && unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if escaped {
		return nil, ErrUnterminatedEscape
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
