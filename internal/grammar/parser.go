package grammar

import (
	"fmt"

	"github.com/roach88/pql2/internal/ast"
)

// Parser is a recursive-descent parser over a token slice. It builds the
// concrete parse tree consumed by Walk.
type Parser struct {
	src    string
	tokens []Token
	pos    int
}

// Parse parses a single PQL query.
func Parse(query string) (*Node, error) {
	tokens, err := Tokenize(query)
	if err != nil {
		return nil, err
	}
	p := &Parser{src: query, tokens: tokens}
	return p.parseSelect()
}

func (p *Parser) cur() Token { return p.tokens[p.pos] }

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) is(tt TokenType) bool { return p.cur().Type == tt }

// advance consumes the current token and returns it as a terminal.
func (p *Parser) advance() *Node {
	tok := p.cur()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return terminal(p.src, tok)
}

func (p *Parser) expect(tt TokenType) (*Node, error) {
	if !p.is(tt) {
		return nil, p.errorf("expected %s, found %s", tt, p.cur())
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	tok := p.cur()
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) node(kind ast.Kind, children ...*Node) *Node {
	return production(kind, p.src, children...)
}

func (p *Parser) parseSelect() (*Node, error) {
	kw, err := p.expect(TokenSelect)
	if err != nil {
		return nil, err
	}
	children := []*Node{kw}
	seen := make(map[TokenType]bool)

	if p.is(TokenTop) {
		top, err := p.parseTop()
		if err != nil {
			return nil, err
		}
		children = append(children, top)
		seen[TokenTop] = true
	}

	outputs, err := p.parseOutputs()
	if err != nil {
		return nil, err
	}
	children = append(children, outputs)

	from, err := p.expect(TokenFrom)
	if err != nil {
		return nil, err
	}
	if !p.is(TokenIdent) && !p.is(TokenString) {
		return nil, p.errorf("expected table name, found %s", p.cur())
	}
	children = append(children, from, p.node(ast.KindTableName, p.advance()))

	for !p.is(TokenEOF) {
		tt := p.cur().Type
		var clause *Node
		switch tt {
		case TokenWhere:
			clause, err = p.parsePredicateClause(ast.KindWhere)
		case TokenHaving:
			clause, err = p.parsePredicateClause(ast.KindHaving)
		case TokenGroup:
			clause, err = p.parseGroupBy()
		case TokenOrder:
			clause, err = p.parseOrderBy()
		case TokenTop:
			clause, err = p.parseTop()
		case TokenLimit:
			clause, err = p.parseLimit()
		default:
			return nil, p.errorf("unexpected %s", p.cur())
		}
		if err != nil {
			return nil, err
		}
		if seen[tt] {
			return nil, &SyntaxError{Line: clause.line, Column: clause.column, Message: fmt.Sprintf("duplicate %s clause", tt)}
		}
		seen[tt] = true
		children = append(children, clause)
	}
	return p.node(ast.KindSelect, children...), nil
}

func (p *Parser) parseOutputs() (*Node, error) {
	if p.is(TokenStar) {
		return p.node(ast.KindStarColumnList, p.advance()), nil
	}
	var children []*Node
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, p.node(ast.KindOutputColumn, expr))
		if !p.is(TokenComma) {
			break
		}
		children = append(children, p.advance())
	}
	return p.node(ast.KindOutputColumnList, children...), nil
}

func (p *Parser) parsePredicateClause(kind ast.Kind) (*Node, error) {
	kw := p.advance()
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return p.node(kind, kw, pred), nil
}

func (p *Parser) parseGroupBy() (*Node, error) {
	group := p.advance()
	by, err := p.expect(TokenBy)
	if err != nil {
		return nil, err
	}
	children := []*Node{group, by}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, expr)
		if !p.is(TokenComma) {
			break
		}
		children = append(children, p.advance())
	}
	return p.node(ast.KindGroupBy, children...), nil
}

func (p *Parser) parseOrderBy() (*Node, error) {
	order := p.advance()
	by, err := p.expect(TokenBy)
	if err != nil {
		return nil, err
	}
	children := []*Node{order, by}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := []*Node{expr}
		if p.is(TokenAsc) || p.is(TokenDesc) {
			item = append(item, p.advance())
		}
		children = append(children, p.node(ast.KindOrderByExpression, item...))
		if !p.is(TokenComma) {
			break
		}
		children = append(children, p.advance())
	}
	return p.node(ast.KindOrderBy, children...), nil
}

func (p *Parser) parseTop() (*Node, error) {
	kw := p.advance()
	n, err := p.expect(TokenInt)
	if err != nil {
		return nil, err
	}
	return p.node(ast.KindTopClause, kw, n), nil
}

// parseLimit produces [LIMIT n] or [LIMIT offset ',' n].
func (p *Parser) parseLimit() (*Node, error) {
	kw := p.advance()
	first, err := p.expect(TokenInt)
	if err != nil {
		return nil, err
	}
	if !p.is(TokenComma) {
		return p.node(ast.KindLimit, kw, first), nil
	}
	comma := p.advance()
	second, err := p.expect(TokenInt)
	if err != nil {
		return nil, err
	}
	return p.node(ast.KindLimit, kw, first, comma, second), nil
}

func (p *Parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.is(TokenOr) {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = p.node(ast.KindBooleanPredicateOp, left, op, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (*Node, error) {
	left, err := p.parseBasic()
	if err != nil {
		return nil, err
	}
	for p.is(TokenAnd) {
		op := p.advance()
		right, err := p.parseBasic()
		if err != nil {
			return nil, err
		}
		left = p.node(ast.KindBooleanPredicateOp, left, op, right)
	}
	return left, nil
}

func (p *Parser) parseBasic() (*Node, error) {
	if p.is(TokenLParen) {
		// '(' may open a predicate group or an expression; try the
		// predicate first and rewind if it does not close cleanly.
		save := p.pos
		lp := p.advance()
		if pred, err := p.parseOr(); err == nil && p.is(TokenRParen) {
			return p.node(ast.KindPredicateParenthesisGroup, lp, pred, p.advance()), nil
		}
		p.pos = save
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch p.cur().Type {
	case TokenCompare:
		op := p.advance()
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return p.node(ast.KindComparisonPredicate, left, op, right), nil

	case TokenNot, TokenIn:
		children := []*Node{left}
		if p.is(TokenNot) {
			children = append(children, p.advance())
		}
		in, err := p.expect(TokenIn)
		if err != nil {
			return nil, err
		}
		lp, err := p.expect(TokenLParen)
		if err != nil {
			return nil, err
		}
		children = append(children, in, lp)
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			children = append(children, expr)
			if !p.is(TokenComma) {
				break
			}
			children = append(children, p.advance())
		}
		rp, err := p.expect(TokenRParen)
		if err != nil {
			return nil, err
		}
		return p.node(ast.KindInPredicate, append(children, rp)...), nil

	case TokenBetween:
		kw := p.advance()
		low, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		and, err := p.expect(TokenAnd)
		if err != nil {
			return nil, err
		}
		high, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return p.node(ast.KindBetweenPredicate, left, kw, low, and, high), nil

	case TokenIs:
		children := []*Node{left, p.advance()}
		if p.is(TokenNot) {
			children = append(children, p.advance())
		}
		null, err := p.expect(TokenNull)
		if err != nil {
			return nil, err
		}
		return p.node(ast.KindIsPredicate, append(children, null)...), nil
	}
	return nil, p.errorf("expected comparison, IN, BETWEEN or IS after expression, found %s", p.cur())
}

func (p *Parser) parseExpr() (*Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.is(TokenPlus) || p.is(TokenMinus) {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = p.node(ast.KindBinaryMathOp, left, op, right)
	}
	return left, nil
}

func (p *Parser) parseTerm() (*Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.is(TokenStar) || p.is(TokenSlash) {
		op := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = p.node(ast.KindBinaryMathOp, left, op, right)
	}
	return left, nil
}

func (p *Parser) parseFactor() (*Node, error) {
	switch tok := p.cur(); tok.Type {
	case TokenLParen:
		lp := p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rp, err := p.expect(TokenRParen)
		if err != nil {
			return nil, err
		}
		return p.node(ast.KindExpressionParenthesisGroup, lp, expr, rp), nil

	case TokenIdent:
		if p.peek().Type == TokenLParen {
			return p.parseFunctionCall()
		}
		return p.node(ast.KindIdentifier, p.advance()), nil

	case TokenInt:
		return p.node(ast.KindIntegerLiteral, p.advance()), nil

	case TokenFloat:
		return p.node(ast.KindFloatingPointLiteral, p.advance()), nil

	case TokenString:
		return p.node(ast.KindStringLiteral, p.advance()), nil

	case TokenMinus:
		// A minus sign directly in front of a number is part of the literal.
		next := p.peek()
		if next.Offset == tok.End && (next.Type == TokenInt || next.Type == TokenFloat) {
			kind := ast.KindIntegerLiteral
			if next.Type == TokenFloat {
				kind = ast.KindFloatingPointLiteral
			}
			minus := p.advance()
			return p.node(kind, minus, p.advance()), nil
		}
	}
	return nil, p.errorf("expected expression, found %s", p.cur())
}

func (p *Parser) parseFunctionCall() (*Node, error) {
	name := p.advance()
	lp := p.advance()
	children := []*Node{name, lp}
	switch {
	case p.is(TokenStar) && p.peek().Type == TokenRParen:
		children = append(children, p.node(ast.KindStarExpression, p.advance()))
	case !p.is(TokenRParen):
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			children = append(children, expr)
			if !p.is(TokenComma) {
				break
			}
			children = append(children, p.advance())
		}
	}
	rp, err := p.expect(TokenRParen)
	if err != nil {
		return nil, err
	}
	return p.node(ast.KindFunctionCall, append(children, rp)...), nil
}
