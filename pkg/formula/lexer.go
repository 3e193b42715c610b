package formula

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return `"+"`
	case tokMinus:
		return `"-"`
	case tokStar:
		return `"*"`
	case tokSlash:
		return `"/"`
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

var operators = map[rune]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'(': tokLParen,
	')': tokRParen,
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '.' || r == ':'
}

func isNumberPart(r rune) bool {
	return r == '.' || (r >= '0' && r <= '9')
}

// tokenize splits src into tokens. Positions are rune offsets, 1-based in
// error messages.
func tokenize(src string) ([]token, error) {
	runes := []rune(src)
	var tokens []token

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case operators[r] != tokEOF:
			tokens = append(tokens, token{kind: operators[r], text: string(r), pos: i})
			i++
		case r == '[':
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end == len(runes) {
				return nil, &SyntaxError{Pos: i + 1, Msg: "unterminated [identifier]"}
			}
			name := strings.TrimSpace(string(runes[i+1 : end]))
			if name == "" {
				return nil, &SyntaxError{Pos: i + 1, Msg: "empty [identifier]"}
			}
			tokens = append(tokens, token{kind: tokIdent, text: name, pos: i})
			i = end + 1
		case isNumberPart(r):
			start := i
			dots := 0
			for i < len(runes) && isNumberPart(runes[i]) {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			text := string(runes[start:i])
			if dots > 1 || text == "." {
				return nil, &SyntaxError{Pos: start + 1, Msg: fmt.Sprintf("malformed number %q", text)}
			}
			if i < len(runes) && isIdentStart(runes[i]) {
				return nil, &SyntaxError{Pos: i + 1, Msg: fmt.Sprintf("unexpected %q after number", string(runes[i]))}
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, pos: start})
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		default:
			return nil, &SyntaxError{Pos: i + 1, Msg: fmt.Sprintf("unexpected character %q", string(r))}
		}
	}

	return append(tokens, token{kind: tokEOF, pos: len(runes)}), nil
}
