package parser

import (
	"strconv"

	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/lexer"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// Parser 语法分析器
// ============================================================================
//
// 递归下降解析器，输入是 Lexer 产出的 token 序列（含 NEWLINE /
// INDENT / DEDENT），输出 ast.Program。
//
// 语句分两类：
// - 简单语句：赋值、表达式、return，以 NEWLINE 结尾
// - 复合语句：if / while / for / def，以冒号引导缩进块
//
// 表达式优先级（低到高）：
//   or > and > not > 比较 > 加减 > 乘除 > 一元负号 > 后缀(调用/索引/属性)
//
// 比较运算不可结合：a < b < c 是语法错误。
//
// ============================================================================

// maxExprDepth 最大表达式嵌套深度，防止栈溢出
const maxExprDepth = 200

// maxParseErrors 最大错误数量限制，防止错误爆炸
const maxParseErrors = 50

// Parser 语法分析器
type Parser struct {
	tokens    []token.Token
	current   int
	arena     *ast.Arena
	errors    []*errors.Diagnostic
	filename  string
	panicMode bool // 错误恢复模式标志，用于避免级联报错
	exprDepth int  // 表达式解析深度
}

// New 创建一个新的语法分析器
//
// 内部先运行词法分析，词法错误会并入解析器的错误列表。
func New(source, filename string) *Parser {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	p := &Parser{
		tokens:   tokens,
		current:  0,
		arena:    ast.NewArena(0),
		filename: filename,
	}
	p.errors = append(p.errors, l.Errors()...)

	return p
}

// Arena 返回节点分配器
//
// AST 节点的生命周期与 Arena 绑定，调用方在使用完语法树之前
// 不应 Free。
func (p *Parser) Arena() *ast.Arena {
	return p.arena
}

// Parse 解析整个源文件
func (p *Parser) Parse() *ast.Program {
	program := &ast.Program{}

	for !p.isAtEnd() {
		p.panicMode = false

		// 顶层允许空行
		if p.match(token.NEWLINE) {
			continue
		}

		stmt := p.parseStatement()
		if p.panicMode {
			p.synchronize()
			continue
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	return program
}

// Errors 返回所有语法错误
func (p *Parser) Errors() []*errors.Diagnostic {
	return p.errors
}

// HasErrors 检查是否有错误
func (p *Parser) HasErrors() bool {
	return len(p.errors) > 0
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() token.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // 返回 EOF
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) checkAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType, message string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.error(message)
	p.panicMode = true
	return token.Token{} // 返回零值，调用方应检查 panicMode
}

func (p *Parser) error(message string) {
	p.errorAt(p.peek().Pos, message)
}

func (p *Parser) errorAt(pos token.Position, message string) {
	// panicMode 下跳过后续错误，避免级联报错
	if p.panicMode {
		return
	}

	// 避免在同一位置重复报错
	if len(p.errors) > 0 {
		last := p.errors[len(p.errors)-1]
		if last.Pos.Line == pos.Line && last.Pos.Column == pos.Column {
			return
		}
	}

	if len(p.errors) >= maxParseErrors {
		p.errors = append(p.errors, errors.New(errors.SyntaxError, pos, "too many errors, aborting"))
		p.panicMode = true
		return
	}

	p.errors = append(p.errors, errors.New(errors.SyntaxError, pos, message))
}

// synchronize 错误恢复：跳到下一个语句边界
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		// 行尾之后是安全点
		if p.previous().Type == token.NEWLINE {
			return
		}

		switch p.peek().Type {
		case token.IF, token.WHILE, token.FOR, token.DEF, token.RETURN,
			token.DEDENT:
			return
		}

		p.advance()
	}
}

// enterExpr 进入一层表达式嵌套
func (p *Parser) enterExpr() bool {
	p.exprDepth++
	if p.exprDepth > maxExprDepth {
		p.error("expression too deeply nested")
		p.panicMode = true
		return false
	}
	return true
}

func (p *Parser) exitExpr() {
	p.exprDepth--
}

// ============================================================================
// 语句解析
// ============================================================================

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.DEF:
		return p.parseFunctionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	default:
		stmt := p.parseSimpleStatement()
		if p.panicMode {
			return nil
		}
		p.consume(token.NEWLINE, "expected newline after statement")
		return stmt
	}
}

// parseSimpleStatement 解析一行内的语句（赋值或表达式），不消费 NEWLINE
func (p *Parser) parseSimpleStatement() ast.Statement {
	expr := p.parseExpression()
	if p.panicMode {
		return nil
	}

	if p.check(token.ASSIGN) {
		assignTok := p.advance()
		if !isAssignTarget(expr) {
			p.errorAt(expr.Pos(), "invalid assignment target")
			p.panicMode = true
			return nil
		}
		value := p.parseExpression()
		if p.panicMode {
			return nil
		}
		return p.arena.NewAssignStatement(expr, assignTok, value)
	}

	return p.arena.NewExpressionStatement(expr)
}

// isAssignTarget 赋值目标只能是名字或索引
func isAssignTarget(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Identifier, *ast.IndexExpression:
		return true
	}
	return false
}

// parseBlock 解析 ": NEWLINE INDENT stmts DEDENT"
func (p *Parser) parseBlock() *ast.BlockStatement {
	p.consume(token.COLON, "expected ':'")
	if p.panicMode {
		return nil
	}
	p.consume(token.NEWLINE, "expected newline after ':'")
	if p.panicMode {
		return nil
	}
	indentTok := p.consume(token.INDENT, "expected an indented block")
	if p.panicMode {
		return nil
	}

	var stmts []ast.Statement
	for !p.check(token.DEDENT) && !p.isAtEnd() {
		if p.match(token.NEWLINE) {
			continue
		}
		stmt := p.parseStatement()
		if p.panicMode {
			p.synchronize()
			p.panicMode = false
			continue
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	dedentTok := p.consume(token.DEDENT, "expected dedent at end of block")
	if p.panicMode {
		return nil
	}

	return p.arena.NewBlockStatement(indentTok, stmts, dedentTok)
}

func (p *Parser) parseIfStatement() ast.Statement {
	ifTok := p.advance() // if

	condition := p.parseExpression()
	if p.panicMode {
		return nil
	}
	body := p.parseBlock()
	if p.panicMode {
		return nil
	}

	var elifs []*ast.ElifClause
	for p.check(token.ELIF) {
		elifTok := p.advance()
		elifCond := p.parseExpression()
		if p.panicMode {
			return nil
		}
		elifBody := p.parseBlock()
		if p.panicMode {
			return nil
		}
		elifs = append(elifs, p.arena.NewElifClause(elifTok, elifCond, elifBody))
	}

	var elseBody *ast.BlockStatement
	if p.match(token.ELSE) {
		elseBody = p.parseBlock()
		if p.panicMode {
			return nil
		}
	}

	return p.arena.NewIfStatement(ifTok, condition, body, elifs, elseBody)
}

func (p *Parser) parseWhileStatement() ast.Statement {
	whileTok := p.advance() // while

	condition := p.parseExpression()
	if p.panicMode {
		return nil
	}
	body := p.parseBlock()
	if p.panicMode {
		return nil
	}

	return p.arena.NewWhileStatement(whileTok, condition, body)
}

// parseForStatement 三段式循环: for init; cond; step:
func (p *Parser) parseForStatement() ast.Statement {
	forTok := p.advance() // for

	init := p.parseSimpleStatement()
	if p.panicMode {
		return nil
	}
	if _, ok := init.(*ast.AssignStatement); !ok {
		p.errorAt(init.Pos(), "expected assignment in for initializer")
		p.panicMode = true
		return nil
	}
	p.consume(token.SEMICOLON, "expected ';' after for initializer")
	if p.panicMode {
		return nil
	}

	condition := p.parseExpression()
	if p.panicMode {
		return nil
	}
	p.consume(token.SEMICOLON, "expected ';' after for condition")
	if p.panicMode {
		return nil
	}

	step := p.parseSimpleStatement()
	if p.panicMode {
		return nil
	}
	if _, ok := step.(*ast.AssignStatement); !ok {
		p.errorAt(step.Pos(), "expected assignment in for step")
		p.panicMode = true
		return nil
	}

	body := p.parseBlock()
	if p.panicMode {
		return nil
	}

	return p.arena.NewForStatement(forTok, init, condition, step, body)
}

func (p *Parser) parseFunctionStatement() ast.Statement {
	defTok := p.advance() // def

	nameTok := p.consume(token.IDENT, "expected function name after 'def'")
	if p.panicMode {
		return nil
	}
	name := p.arena.NewIdentifier(nameTok)

	p.consume(token.LPAREN, "expected '(' after function name")
	if p.panicMode {
		return nil
	}

	var params []*ast.Identifier
	if !p.check(token.RPAREN) {
		for {
			paramTok := p.consume(token.IDENT, "expected parameter name")
			if p.panicMode {
				return nil
			}
			params = append(params, p.arena.NewIdentifier(paramTok))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expected ')' after parameters")
	if p.panicMode {
		return nil
	}

	body := p.parseBlock()
	if p.panicMode {
		return nil
	}

	return p.arena.NewFunctionStatement(defTok, name, params, body)
}

func (p *Parser) parseReturnStatement() ast.Statement {
	returnTok := p.advance() // return

	var value ast.Expression
	if !p.check(token.NEWLINE) && !p.isAtEnd() {
		value = p.parseExpression()
		if p.panicMode {
			return nil
		}
	}
	p.consume(token.NEWLINE, "expected newline after return statement")
	if p.panicMode {
		return nil
	}

	return p.arena.NewReturnStatement(returnTok, value)
}

// ============================================================================
// 表达式解析
// ============================================================================

func (p *Parser) parseExpression() ast.Expression {
	if !p.enterExpr() {
		return nil
	}
	defer p.exitExpr()

	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	if p.panicMode {
		return nil
	}

	for p.check(token.OR) {
		op := p.advance()
		right := p.parseAnd()
		if p.panicMode {
			return nil
		}
		left = p.arena.NewBinaryExpression(left, op, right)
	}

	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	if p.panicMode {
		return nil
	}

	for p.check(token.AND) {
		op := p.advance()
		right := p.parseNot()
		if p.panicMode {
			return nil
		}
		left = p.arena.NewBinaryExpression(left, op, right)
	}

	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.check(token.NOT) {
		op := p.advance()
		operand := p.parseNot()
		if p.panicMode {
			return nil
		}
		return p.arena.NewUnaryExpression(op, operand)
	}

	return p.parseComparison()
}

// parseComparison 比较运算不可结合，链式比较直接报错
func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	if p.panicMode {
		return nil
	}

	if p.checkAny(token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE) {
		op := p.advance()
		right := p.parseAdditive()
		if p.panicMode {
			return nil
		}
		left = p.arena.NewBinaryExpression(left, op, right)

		if p.checkAny(token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE) {
			p.error("chained comparisons are not supported")
			p.panicMode = true
			return nil
		}
	}

	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	if p.panicMode {
		return nil
	}

	for p.checkAny(token.PLUS, token.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		if p.panicMode {
			return nil
		}
		left = p.arena.NewBinaryExpression(left, op, right)
	}

	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	if p.panicMode {
		return nil
	}

	for p.checkAny(token.STAR, token.SLASH) {
		op := p.advance()
		right := p.parseUnary()
		if p.panicMode {
			return nil
		}
		left = p.arena.NewBinaryExpression(left, op, right)
	}

	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.check(token.MINUS) {
		op := p.advance()
		operand := p.parseUnary()
		if p.panicMode {
			return nil
		}
		return p.arena.NewUnaryExpression(op, operand)
	}

	return p.parsePostfix()
}

// parsePostfix 调用、索引和属性访问，可以任意串联
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	if p.panicMode {
		return nil
	}

	for {
		switch p.peek().Type {
		case token.LPAREN:
			lparen := p.advance()
			var args []ast.Expression
			if !p.check(token.RPAREN) {
				for {
					arg := p.parseExpression()
					if p.panicMode {
						return nil
					}
					args = append(args, arg)
					if !p.match(token.COMMA) {
						break
					}
				}
			}
			rparen := p.consume(token.RPAREN, "expected ')' after arguments")
			if p.panicMode {
				return nil
			}
			expr = p.arena.NewCallExpression(expr, lparen, args, rparen)

		case token.LBRACKET:
			lbracket := p.advance()
			index := p.parseExpression()
			if p.panicMode {
				return nil
			}
			rbracket := p.consume(token.RBRACKET, "expected ']' after index")
			if p.panicMode {
				return nil
			}
			expr = p.arena.NewIndexExpression(expr, lbracket, index, rbracket)

		case token.DOT:
			dot := p.advance()
			nameTok := p.consume(token.IDENT, "expected attribute name after '.'")
			if p.panicMode {
				return nil
			}
			expr = p.arena.NewDotExpression(expr, dot, p.arena.NewIdentifier(nameTok))

		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.peek().Type {
	case token.INT:
		tok := p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorAt(tok.Pos, "integer literal out of range: "+tok.Literal)
			p.panicMode = true
			return nil
		}
		return p.arena.NewIntegerLiteral(tok, value)

	case token.FLOAT:
		tok := p.advance()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorAt(tok.Pos, "invalid float literal: "+tok.Literal)
			p.panicMode = true
			return nil
		}
		return p.arena.NewFloatLiteral(tok, value)

	case token.STRING:
		tok := p.advance()
		return p.arena.NewStringLiteral(tok, tok.Literal)

	case token.TRUE:
		return p.arena.NewBooleanLiteral(p.advance(), true)

	case token.FALSE:
		return p.arena.NewBooleanLiteral(p.advance(), false)

	case token.IDENT:
		return p.arena.NewIdentifier(p.advance())

	case token.LPAREN:
		return p.parseParenExpression()

	case token.LBRACKET:
		return p.parseArrayLiteral()

	case token.LBRACE:
		return p.parseBraceLiteral()

	default:
		p.error("expected expression, got " + p.peek().Type.String())
		p.panicMode = true
		return nil
	}
}

// parseParenExpression 括号分组或元组字面量
//
// '(' expr ')'               分组
// '(' expr ',' expr ... ')'  元组，至少两个元素
func (p *Parser) parseParenExpression() ast.Expression {
	lparen := p.advance() // (

	if p.check(token.RPAREN) {
		p.error("expected expression inside parentheses")
		p.panicMode = true
		return nil
	}

	first := p.parseExpression()
	if p.panicMode {
		return nil
	}

	if !p.check(token.COMMA) {
		rparen := p.consume(token.RPAREN, "expected ')' after expression")
		if p.panicMode {
			return nil
		}
		return p.arena.NewGroupingExpression(lparen, first, rparen)
	}

	// 元组至少需要两个元素，(e,) 不是合法语法
	elements := []ast.Expression{first}
	for p.match(token.COMMA) {
		if p.check(token.RPAREN) {
			p.error("single-element tuples are not supported")
			p.panicMode = true
			return nil
		}
		elem := p.parseExpression()
		if p.panicMode {
			return nil
		}
		elements = append(elements, elem)
	}
	rparen := p.consume(token.RPAREN, "expected ')' after tuple elements")
	if p.panicMode {
		return nil
	}

	return p.arena.NewTupleLiteral(lparen, elements, rparen)
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	lbracket := p.advance() // [

	var elements []ast.Expression
	if !p.check(token.RBRACKET) {
		for {
			elem := p.parseExpression()
			if p.panicMode {
				return nil
			}
			elements = append(elements, elem)
			if !p.match(token.COMMA) {
				break
			}
			if p.check(token.RBRACKET) {
				break // 尾随逗号
			}
		}
	}
	rbracket := p.consume(token.RBRACKET, "expected ']' after array elements")
	if p.panicMode {
		return nil
	}

	return p.arena.NewArrayLiteral(lbracket, elements, rbracket)
}

// parseBraceLiteral 映射或集合字面量
//
// 第一个表达式后面跟 ':' 则是映射，否则是集合。
// 空 {} 有歧义，直接拒绝。
func (p *Parser) parseBraceLiteral() ast.Expression {
	lbrace := p.advance() // {

	if p.check(token.RBRACE) {
		p.error("empty {} is ambiguous, use Map() or Set() for empty collections")
		p.panicMode = true
		return nil
	}

	first := p.parseExpression()
	if p.panicMode {
		return nil
	}

	if p.check(token.COLON) {
		return p.parseMapLiteral(lbrace, first)
	}

	// 集合
	elements := []ast.Expression{first}
	for p.match(token.COMMA) {
		if p.check(token.RBRACE) {
			break // 尾随逗号
		}
		elem := p.parseExpression()
		if p.panicMode {
			return nil
		}
		elements = append(elements, elem)
	}
	rbrace := p.consume(token.RBRACE, "expected '}' after set elements")
	if p.panicMode {
		return nil
	}

	return p.arena.NewSetLiteral(lbrace, elements, rbrace)
}

func (p *Parser) parseMapLiteral(lbrace token.Token, firstKey ast.Expression) ast.Expression {
	keys := []ast.Expression{firstKey}
	var values []ast.Expression

	p.advance() // :
	firstValue := p.parseExpression()
	if p.panicMode {
		return nil
	}
	values = append(values, firstValue)

	for p.match(token.COMMA) {
		if p.check(token.RBRACE) {
			break // 尾随逗号
		}
		key := p.parseExpression()
		if p.panicMode {
			return nil
		}
		p.consume(token.COLON, "expected ':' after map key")
		if p.panicMode {
			return nil
		}
		value := p.parseExpression()
		if p.panicMode {
			return nil
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	rbrace := p.consume(token.RBRACE, "expected '}' after map entries")
	if p.panicMode {
		return nil
	}

	return p.arena.NewMapLiteral(lbrace, keys, values, rbrace)
}
