package grammar

import (
	"fmt"
	"strings"
)

// Lexer tokenizes PQL query strings.
type Lexer struct {
	input      string
	offset     int // offset of ch
	readOffset int
	ch         byte
	line       int
	column     int
}

// NewLexer creates a new lexer.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character, tracking line and column.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readOffset >= len(l.input) {
		l.ch = 0
		l.offset = len(l.input)
	} else {
		l.ch = l.input[l.readOffset]
		l.offset = l.readOffset
	}
	l.readOffset++
	l.column++
}

// peekChar looks at the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readOffset >= len(l.input) {
		return 0
	}
	return l.input[l.readOffset]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	tok := Token{Offset: l.offset, Line: l.line, Column: l.column}
	single := func(tt TokenType) (Token, error) {
		l.readChar()
		return l.finish(tok, tt), nil
	}

	switch {
	case l.offset >= len(l.input):
		tok.Type = TokenEOF
		tok.End = l.offset
		return tok, nil
	case l.ch == ',':
		return single(TokenComma)
	case l.ch == '(':
		return single(TokenLParen)
	case l.ch == ')':
		return single(TokenRParen)
	case l.ch == '*':
		return single(TokenStar)
	case l.ch == '+':
		return single(TokenPlus)
	case l.ch == '-':
		return single(TokenMinus)
	case l.ch == '/':
		return single(TokenSlash)
	case l.ch == '=':
		return single(TokenCompare)
	case l.ch == '<':
		l.readChar()
		if l.ch == '=' || l.ch == '>' {
			l.readChar()
		}
		return l.finish(tok, TokenCompare), nil
	case l.ch == '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
		return l.finish(tok, TokenCompare), nil
	case l.ch == '!':
		if l.peekChar() != '=' {
			return tok, l.errorAt(tok, "unexpected character '!'")
		}
		l.readChar()
		return single(TokenCompare)
	case l.ch == '\'' || l.ch == '"':
		return l.readString(tok)
	case isDigit(l.ch):
		return l.readNumber(tok), nil
	case isLetter(l.ch):
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
			l.readChar()
		}
		tok = l.finish(tok, TokenIdent)
		if kw, ok := keywords[strings.ToLower(tok.Value)]; ok {
			tok.Type = kw
		}
		return tok, nil
	}
	return tok, l.errorAt(tok, fmt.Sprintf("unexpected character %q", l.ch))
}

// readString reads a quoted string. A doubled quote stays part of the
// lexeme; unescaping is left to consumers.
func (l *Lexer) readString(tok Token) (Token, error) {
	quote := l.ch
	l.readChar()
	for {
		switch {
		case l.offset >= len(l.input):
			return tok, l.errorAt(tok, "unterminated string literal")
		case l.ch == quote && l.peekChar() == quote:
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar()
			return l.finish(tok, TokenString), nil
		default:
			l.readChar()
		}
	}
}

// readNumber reads an integer or a decimal number with optional exponent.
func (l *Lexer) readNumber(tok Token) Token {
	tt := TokenInt
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		tt = TokenFloat
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			tt = TokenFloat
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.finish(tok, tt)
}

func (l *Lexer) finish(tok Token, tt TokenType) Token {
	tok.Type = tt
	tok.End = l.offset
	tok.Value = l.input[tok.Offset:tok.End]
	return tok
}

func (l *Lexer) errorAt(tok Token, msg string) error {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Message: msg}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens of the input, ending with TokenEOF.
func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}
