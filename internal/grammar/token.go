package grammar

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenInt
	TokenFloat
	TokenString
	TokenComma
	TokenLParen
	TokenRParen
	TokenStar
	TokenPlus
	TokenMinus
	TokenSlash
	TokenCompare // =, <>, !=, <, <=, >, >=

	// Keywords
	TokenSelect
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenBetween
	TokenIs
	TokenNull
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenTop
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "end of query",
	TokenIdent:   "identifier",
	TokenInt:     "integer",
	TokenFloat:   "number",
	TokenString:  "string",
	TokenComma:   "','",
	TokenLParen:  "'('",
	TokenRParen:  "')'",
	TokenStar:    "'*'",
	TokenPlus:    "'+'",
	TokenMinus:   "'-'",
	TokenSlash:   "'/'",
	TokenCompare: "comparison operator",
	TokenSelect:  "SELECT",
	TokenFrom:    "FROM",
	TokenWhere:   "WHERE",
	TokenAnd:     "AND",
	TokenOr:      "OR",
	TokenNot:     "NOT",
	TokenIn:      "IN",
	TokenBetween: "BETWEEN",
	TokenIs:      "IS",
	TokenNull:    "NULL",
	TokenGroup:   "GROUP",
	TokenBy:      "BY",
	TokenHaving:  "HAVING",
	TokenOrder:   "ORDER",
	TokenAsc:     "ASC",
	TokenDesc:    "DESC",
	TokenLimit:   "LIMIT",
	TokenTop:     "TOP",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps lower-cased keyword text to its token type.
var keywords = map[string]TokenType{
	"select":  TokenSelect,
	"from":    TokenFrom,
	"where":   TokenWhere,
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"in":      TokenIn,
	"between": TokenBetween,
	"is":      TokenIs,
	"null":    TokenNull,
	"group":   TokenGroup,
	"by":      TokenBy,
	"having":  TokenHaving,
	"order":   TokenOrder,
	"asc":     TokenAsc,
	"desc":    TokenDesc,
	"limit":   TokenLimit,
	"top":     TokenTop,
}

// Token is a lexeme with its source position.
// Value is the raw text, quotes included for strings.
type Token struct {
	Type   TokenType
	Value  string
	Offset int // byte offset of the first character
	End    int // byte offset just past the last character
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Value)
}

// SyntaxError reports a query that does not match the grammar.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d:%d: %s", e.Line, e.Column, e.Message)
}
