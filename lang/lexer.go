package lang

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// LexError records an unrecognized character. Lexing is fault-tolerant:
// the character is reported and skipped, and scanning continues.
type LexError struct {
	Line int
	Char byte
}

func (e LexError) Error() string {
	return fmt.Sprintf("illegal character %q at line %d", e.Char, e.Line)
}

// Lexer tokenizes modeling-language source text.
type Lexer struct {
	// Logger receives a warning per unrecognized character.
	// Defaults to a no-op logger.
	Logger zerolog.Logger

	input   string
	pos     int
	readPos int
	ch      byte
	line    int

	errs []LexError
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{Logger: zerolog.Nop(), input: input, line: 1}
	l.readChar()
	return l
}

// Errors returns the unrecognized characters encountered so far.
func (l *Lexer) Errors() []LexError {
	return l.errs
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			l.line++
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipComment()
			continue
		}
		break
	}

	line := l.line
	single := func(t TokenType, lit string) Token {
		l.readChar()
		return Token{Type: t, Literal: lit, Line: line}
	}

	switch l.ch {
	case 0:
		return Token{Type: TokenEOF, Line: line}
	case '^':
		return single(TokenAnd, "^")
	case '|':
		return single(TokenOr, "|")
	case '+':
		return single(TokenPlus, "+")
	case '*':
		return single(TokenTimes, "*")
	case '(':
		return single(TokenLParen, "(")
	case ')':
		return single(TokenRParen, ")")
	case '{':
		return single(TokenLCurly, "{")
	case '}':
		return single(TokenRCurly, "}")
	case ',':
		return single(TokenComma, ",")
	case '[':
		return single(TokenLBrack, "[")
	case ']':
		return single(TokenRBrack, "]")
	case '/':
		return single(TokenDiv, "/")
	case '-':
		return single(TokenMinus, "-")
	case ':':
		return single(TokenColon, ":")
	case ';':
		return single(TokenSemi, ";")
	case '$':
		return single(TokenDollar, "$")
	case '&':
		return single(TokenAmpersand, "&")
	case '_':
		return single(TokenUnderscore, "_")
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(line)
		}
		return single(TokenDot, ".")
	case '~':
		if l.peekChar() == '=' {
			l.readChar()
			return single(TokenNeq, "~=")
		}
		return single(TokenNot, "~")
	case '=':
		switch l.peekChar() {
		case '=':
			l.readChar()
			return single(TokenCompEq, "==")
		case '>':
			l.readChar()
			return single(TokenImply, "=>")
		}
		return single(TokenAssign, "=")
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			if l.peekChar() == '>' {
				l.readChar()
				return single(TokenEquiv, "<=>")
			}
			return single(TokenLessEq, "<=")
		}
		return single(TokenLess, "<")
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			return single(TokenGreaterEq, ">=")
		}
		return single(TokenGreater, ">")
	case '?':
		if isNameChar(l.peekChar()) {
			l.readChar()
			lit := "?" + l.readNameTail()
			return Token{Type: TokenVar, Literal: lit, Line: line}
		}
		return single(TokenQuestion, "?")
	case '@':
		if isNameChar(l.peekChar()) {
			l.readChar()
			lit := "@" + l.readNameTail()
			return Token{Type: TokenEnumVal, Literal: lit, Line: line}
		}
		return l.illegal(line)
	}

	if isDigit(l.ch) {
		return l.readNumber(line)
	}
	if isLetter(l.ch) {
		lit := l.readIdentifier()
		return Token{Type: LookupIdent(lit), Literal: lit, Line: line}
	}
	return l.illegal(line)
}

// illegal reports the current character and skips it.
func (l *Lexer) illegal(line int) Token {
	err := LexError{Line: line, Char: l.ch}
	l.errs = append(l.errs, err)
	l.Logger.Warn().Int("line", line).Str("char", string(l.ch)).Msg("illegal character skipped")
	l.readChar()
	return l.NextToken()
}

// readIdentifier scans letter (letter|digit|-|_)* ending in a letter or
// digit, with an optional trailing prime.
func (l *Lexer) readIdentifier() string {
	lit := l.readNameTail()
	if l.ch == '\'' {
		l.readChar()
		lit += "'"
	}
	return lit
}

// readNameTail scans the alphanumeric run starting at the current
// character. Interior '-' and '_' are consumed only when the run continues,
// so a trailing minus stays a separate operator token.
func (l *Lexer) readNameTail() string {
	start := l.pos
	for {
		if isAlnum(l.ch) {
			l.readChar()
			continue
		}
		if (l.ch == '-' || l.ch == '_') && isNameChar(l.peekChar()) {
			l.readChar()
			continue
		}
		break
	}
	return l.input[start:l.pos]
}

// readNumber scans an integer or double literal and decodes its value.
func (l *Lexer) readNumber(line int) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	isDouble := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isDouble = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lit := l.input[start:l.pos]
	if isDouble {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			l.errs = append(l.errs, LexError{Line: line, Char: lit[0]})
			return l.NextToken()
		}
		return Token{Type: TokenDouble, Literal: lit, Float: f, Line: line}
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		l.errs = append(l.errs, LexError{Line: line, Char: lit[0]})
		return l.NextToken()
	}
	return Token{Type: TokenInt, Literal: lit, Int: n, Line: line}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlnum(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func isNameChar(ch byte) bool {
	return isAlnum(ch) || ch == '-' || ch == '_'
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens
}
