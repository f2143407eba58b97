package ast

import (
	"strings"

	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// AST 节点定义
// ============================================================================
//
// Culebra 的语法树分为两大类节点：
// - Expression：求值后产生一个值
// - Statement：执行后产生副作用（赋值、控制流、函数定义等）
//
// 每个节点都记录其在源码中的位置，供诊断信息使用。
// String() 输出节点的可读形式，仅用于调试与测试断言。
//
// ============================================================================

// Node 是所有 AST 节点的基接口
type Node interface {
	Pos() token.Position // 返回节点在源代码中的位置
	End() token.Position // 返回节点结束位置
	String() string      // 返回节点的字符串表示（用于调试）
}

// Expression 表示一个表达式节点
type Expression interface {
	Node
	exprNode()
}

// Statement 表示一个语句节点
type Statement interface {
	Node
	stmtNode()
}

// ============================================================================
// 程序根节点
// ============================================================================

// Program 一个源文件解析后的根节点
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{}
}

func (p *Program) End() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[len(p.Statements)-1].End()
	}
	return token.Position{}
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, stmt := range p.Statements {
		sb.WriteString(stmt.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ============================================================================
// 表达式节点
// ============================================================================

// Identifier 标识符
type Identifier struct {
	Token token.Token
	Name  string
}

func (e *Identifier) Pos() token.Position { return e.Token.Pos }
func (e *Identifier) End() token.Position { return e.Token.Pos }
func (e *Identifier) String() string      { return e.Name }
func (e *Identifier) exprNode()           {}

// IntegerLiteral 整数字面量
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntegerLiteral) Pos() token.Position { return e.Token.Pos }
func (e *IntegerLiteral) End() token.Position { return e.Token.Pos }
func (e *IntegerLiteral) String() string      { return e.Token.Literal }
func (e *IntegerLiteral) exprNode()           {}

// FloatLiteral 浮点数字面量
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) Pos() token.Position { return e.Token.Pos }
func (e *FloatLiteral) End() token.Position { return e.Token.Pos }
func (e *FloatLiteral) String() string      { return e.Token.Literal }
func (e *FloatLiteral) exprNode()           {}

// StringLiteral 字符串字面量
//
// Value 是已处理转义后的内容。
type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) Pos() token.Position { return e.Token.Pos }
func (e *StringLiteral) End() token.Position { return e.Token.Pos }
func (e *StringLiteral) String() string      { return "\"" + e.Value + "\"" }
func (e *StringLiteral) exprNode()           {}

// BooleanLiteral 布尔字面量 (true / false)
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) Pos() token.Position { return e.Token.Pos }
func (e *BooleanLiteral) End() token.Position { return e.Token.Pos }
func (e *BooleanLiteral) String() string      { return e.Token.Literal }
func (e *BooleanLiteral) exprNode()           {}

// UnaryExpression 一元表达式 (-x, not x)
type UnaryExpression struct {
	Operator token.Token // - 或 not
	Operand  Expression
}

func (e *UnaryExpression) Pos() token.Position { return e.Operator.Pos }
func (e *UnaryExpression) End() token.Position { return e.Operand.End() }
func (e *UnaryExpression) String() string {
	if e.Operator.Type == token.NOT {
		return "(not " + e.Operand.String() + ")"
	}
	return "(" + e.Operator.Literal + e.Operand.String() + ")"
}
func (e *UnaryExpression) exprNode() {}

// BinaryExpression 二元表达式 (a + b, a == b, a and b)
type BinaryExpression struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (e *BinaryExpression) Pos() token.Position { return e.Left.Pos() }
func (e *BinaryExpression) End() token.Position { return e.Right.End() }
func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator.Literal + " " + e.Right.String() + ")"
}
func (e *BinaryExpression) exprNode() {}

// GroupingExpression 括号分组 ((expr))
//
// 保留括号节点是为了区分 (x) 和单元素元组候选，
// 以及让位置信息覆盖整个括号范围。
type GroupingExpression struct {
	LParen token.Token
	Expr   Expression
	RParen token.Token
}

func (e *GroupingExpression) Pos() token.Position { return e.LParen.Pos }
func (e *GroupingExpression) End() token.Position { return e.RParen.Pos }
func (e *GroupingExpression) String() string      { return "(" + e.Expr.String() + ")" }
func (e *GroupingExpression) exprNode()           {}

// ArrayLiteral 数组字面量 ([1, 2, 3])
type ArrayLiteral struct {
	LBracket token.Token
	Elements []Expression
	RBracket token.Token
}

func (e *ArrayLiteral) Pos() token.Position { return e.LBracket.Pos }
func (e *ArrayLiteral) End() token.Position { return e.RBracket.Pos }
func (e *ArrayLiteral) String() string {
	return "[" + joinExprs(e.Elements) + "]"
}
func (e *ArrayLiteral) exprNode() {}

// MapLiteral 映射字面量 ({"a": 1, "b": 2})
//
// Keys 与 Values 按出现顺序一一对应。
type MapLiteral struct {
	LBrace token.Token
	Keys   []Expression
	Values []Expression
	RBrace token.Token
}

func (e *MapLiteral) Pos() token.Position { return e.LBrace.Pos }
func (e *MapLiteral) End() token.Position { return e.RBrace.Pos }
func (e *MapLiteral) String() string {
	var parts []string
	for i := range e.Keys {
		parts = append(parts, e.Keys[i].String()+": "+e.Values[i].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (e *MapLiteral) exprNode() {}

// SetLiteral 集合字面量 ({1, 2, 3})
type SetLiteral struct {
	LBrace   token.Token
	Elements []Expression
	RBrace   token.Token
}

func (e *SetLiteral) Pos() token.Position { return e.LBrace.Pos }
func (e *SetLiteral) End() token.Position { return e.RBrace.Pos }
func (e *SetLiteral) String() string {
	return "{" + joinExprs(e.Elements) + "}"
}
func (e *SetLiteral) exprNode() {}

// TupleLiteral 元组字面量 ((1, 2))，至少两个元素
type TupleLiteral struct {
	LParen   token.Token
	Elements []Expression
	RParen   token.Token
}

func (e *TupleLiteral) Pos() token.Position { return e.LParen.Pos }
func (e *TupleLiteral) End() token.Position { return e.RParen.Pos }
func (e *TupleLiteral) String() string {
	return "(" + joinExprs(e.Elements) + ")"
}
func (e *TupleLiteral) exprNode() {}

// IndexExpression 索引访问 (obj[index])
type IndexExpression struct {
	Object   Expression
	LBracket token.Token
	Index    Expression
	RBracket token.Token
}

func (e *IndexExpression) Pos() token.Position { return e.Object.Pos() }
func (e *IndexExpression) End() token.Position { return e.RBracket.Pos }
func (e *IndexExpression) String() string {
	return e.Object.String() + "[" + e.Index.String() + "]"
}
func (e *IndexExpression) exprNode() {}

// DotExpression 属性/方法访问 (obj.name)
type DotExpression struct {
	Object Expression
	Dot    token.Token
	Name   *Identifier
}

func (e *DotExpression) Pos() token.Position { return e.Object.Pos() }
func (e *DotExpression) End() token.Position { return e.Name.End() }
func (e *DotExpression) String() string {
	return e.Object.String() + "." + e.Name.Name
}
func (e *DotExpression) exprNode() {}

// CallExpression 调用表达式 (f(a, b) 或 obj.method(a))
type CallExpression struct {
	Callee    Expression
	LParen    token.Token
	Arguments []Expression
	RParen    token.Token
}

func (e *CallExpression) Pos() token.Position { return e.Callee.Pos() }
func (e *CallExpression) End() token.Position { return e.RParen.Pos }
func (e *CallExpression) String() string {
	return e.Callee.String() + "(" + joinExprs(e.Arguments) + ")"
}
func (e *CallExpression) exprNode() {}

// ============================================================================
// 语句节点
// ============================================================================

// ExpressionStatement 表达式语句（单独一行的表达式）
type ExpressionStatement struct {
	Expr Expression
}

func (s *ExpressionStatement) Pos() token.Position { return s.Expr.Pos() }
func (s *ExpressionStatement) End() token.Position { return s.Expr.End() }
func (s *ExpressionStatement) String() string      { return s.Expr.String() }
func (s *ExpressionStatement) stmtNode()           {}

// AssignStatement 赋值语句 (target = value)
//
// Target 只能是 Identifier 或 IndexExpression，由解析器保证。
type AssignStatement struct {
	Target Expression
	Assign token.Token
	Value  Expression
}

func (s *AssignStatement) Pos() token.Position { return s.Target.Pos() }
func (s *AssignStatement) End() token.Position { return s.Value.End() }
func (s *AssignStatement) String() string {
	return s.Target.String() + " = " + s.Value.String()
}
func (s *AssignStatement) stmtNode() {}

// BlockStatement 缩进块
type BlockStatement struct {
	Indent     token.Token // INDENT token
	Statements []Statement
	Dedent     token.Token // DEDENT token
}

func (s *BlockStatement) Pos() token.Position { return s.Indent.Pos }
func (s *BlockStatement) End() token.Position { return s.Dedent.Pos }
func (s *BlockStatement) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, stmt := range s.Statements {
		sb.WriteString(stmt.String())
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}
func (s *BlockStatement) stmtNode() {}

// ElifClause if 语句的一个 elif 分支
type ElifClause struct {
	Token     token.Token // elif token
	Condition Expression
	Body      *BlockStatement
}

func (c *ElifClause) Pos() token.Position { return c.Token.Pos }
func (c *ElifClause) End() token.Position { return c.Body.End() }
func (c *ElifClause) String() string {
	return "elif " + c.Condition.String() + ": " + c.Body.String()
}

// IfStatement 条件语句 (if / elif / else)
type IfStatement struct {
	Token     token.Token // if token
	Condition Expression
	Body      *BlockStatement
	Elifs     []*ElifClause
	Else      *BlockStatement // 可为 nil
}

func (s *IfStatement) Pos() token.Position { return s.Token.Pos }
func (s *IfStatement) End() token.Position {
	if s.Else != nil {
		return s.Else.End()
	}
	if len(s.Elifs) > 0 {
		return s.Elifs[len(s.Elifs)-1].End()
	}
	return s.Body.End()
}
func (s *IfStatement) String() string {
	var sb strings.Builder
	sb.WriteString("if ")
	sb.WriteString(s.Condition.String())
	sb.WriteString(": ")
	sb.WriteString(s.Body.String())
	for _, elif := range s.Elifs {
		sb.WriteString(" ")
		sb.WriteString(elif.String())
	}
	if s.Else != nil {
		sb.WriteString(" else: ")
		sb.WriteString(s.Else.String())
	}
	return sb.String()
}
func (s *IfStatement) stmtNode() {}

// WhileStatement while 循环
type WhileStatement struct {
	Token     token.Token // while token
	Condition Expression
	Body      *BlockStatement
}

func (s *WhileStatement) Pos() token.Position { return s.Token.Pos }
func (s *WhileStatement) End() token.Position { return s.Body.End() }
func (s *WhileStatement) String() string {
	return "while " + s.Condition.String() + ": " + s.Body.String()
}
func (s *WhileStatement) stmtNode() {}

// ForStatement 三段式 for 循环 (for init; cond; step:)
type ForStatement struct {
	Token     token.Token // for token
	Init      Statement   // 初始化语句（赋值）
	Condition Expression
	Step      Statement // 步进语句（赋值）
	Body      *BlockStatement
}

func (s *ForStatement) Pos() token.Position { return s.Token.Pos }
func (s *ForStatement) End() token.Position { return s.Body.End() }
func (s *ForStatement) String() string {
	return "for " + s.Init.String() + "; " + s.Condition.String() + "; " +
		s.Step.String() + ": " + s.Body.String()
}
func (s *ForStatement) stmtNode() {}

// FunctionStatement 函数定义 (def name(params):)
type FunctionStatement struct {
	Token  token.Token // def token
	Name   *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

func (s *FunctionStatement) Pos() token.Position { return s.Token.Pos }
func (s *FunctionStatement) End() token.Position { return s.Body.End() }
func (s *FunctionStatement) String() string {
	var params []string
	for _, p := range s.Params {
		params = append(params, p.Name)
	}
	return "def " + s.Name.Name + "(" + strings.Join(params, ", ") + "): " + s.Body.String()
}
func (s *FunctionStatement) stmtNode() {}

// ReturnStatement return 语句
//
// Value 为 nil 表示裸 return，运行时返回 None。
type ReturnStatement struct {
	Token token.Token // return token
	Value Expression
}

func (s *ReturnStatement) Pos() token.Position { return s.Token.Pos }
func (s *ReturnStatement) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.Token.Pos
}
func (s *ReturnStatement) String() string {
	if s.Value != nil {
		return "return " + s.Value.String()
	}
	return "return"
}
func (s *ReturnStatement) stmtNode() {}

// joinExprs 用逗号连接表达式的字符串表示
func joinExprs(exprs []Expression) string {
	var parts []string
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
