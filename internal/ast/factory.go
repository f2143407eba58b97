package ast

import (
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// AST 节点工厂函数
// ============================================================================
//
// 工厂函数从 Arena 分配 AST 节点：
// - 统一的节点创建方式，方便 Arena 分配
// - 减少手动字段初始化的错误
//
// 使用方式：
//   arena := NewArena(64 * 1024)
//   node := arena.NewIntegerLiteral(tok, 42)
//
// PERF: 所有工厂函数都是内联友好的简单函数
//
// ============================================================================

// ============================================================================
// 表达式节点工厂
// ============================================================================

// NewIdentifier 创建标识符节点
func (a *Arena) NewIdentifier(tok token.Token) *Identifier {
	node := AllocType[Identifier](a)
	node.Token = tok
	node.Name = tok.Literal
	return node
}

// NewIntegerLiteral 创建整数字面量节点
func (a *Arena) NewIntegerLiteral(tok token.Token, value int64) *IntegerLiteral {
	node := AllocType[IntegerLiteral](a)
	node.Token = tok
	node.Value = value
	return node
}

// NewFloatLiteral 创建浮点数字面量节点
func (a *Arena) NewFloatLiteral(tok token.Token, value float64) *FloatLiteral {
	node := AllocType[FloatLiteral](a)
	node.Token = tok
	node.Value = value
	return node
}

// NewStringLiteral 创建字符串字面量节点
//
// value 是已处理转义后的内容。
func (a *Arena) NewStringLiteral(tok token.Token, value string) *StringLiteral {
	node := AllocType[StringLiteral](a)
	node.Token = tok
	node.Value = value
	return node
}

// NewBooleanLiteral 创建布尔字面量节点
func (a *Arena) NewBooleanLiteral(tok token.Token, value bool) *BooleanLiteral {
	node := AllocType[BooleanLiteral](a)
	node.Token = tok
	node.Value = value
	return node
}

// NewUnaryExpression 创建一元表达式节点
func (a *Arena) NewUnaryExpression(op token.Token, operand Expression) *UnaryExpression {
	node := AllocType[UnaryExpression](a)
	node.Operator = op
	node.Operand = operand
	return node
}

// NewBinaryExpression 创建二元表达式节点
func (a *Arena) NewBinaryExpression(left Expression, op token.Token, right Expression) *BinaryExpression {
	node := AllocType[BinaryExpression](a)
	node.Left = left
	node.Operator = op
	node.Right = right
	return node
}

// NewGroupingExpression 创建括号分组节点
func (a *Arena) NewGroupingExpression(lparen token.Token, expr Expression, rparen token.Token) *GroupingExpression {
	node := AllocType[GroupingExpression](a)
	node.LParen = lparen
	node.Expr = expr
	node.RParen = rparen
	return node
}

// NewArrayLiteral 创建数组字面量节点
func (a *Arena) NewArrayLiteral(lbracket token.Token, elements []Expression, rbracket token.Token) *ArrayLiteral {
	node := AllocType[ArrayLiteral](a)
	node.LBracket = lbracket
	node.Elements = elements
	node.RBracket = rbracket
	return node
}

// NewMapLiteral 创建映射字面量节点
func (a *Arena) NewMapLiteral(lbrace token.Token, keys, values []Expression, rbrace token.Token) *MapLiteral {
	node := AllocType[MapLiteral](a)
	node.LBrace = lbrace
	node.Keys = keys
	node.Values = values
	node.RBrace = rbrace
	return node
}

// NewSetLiteral 创建集合字面量节点
func (a *Arena) NewSetLiteral(lbrace token.Token, elements []Expression, rbrace token.Token) *SetLiteral {
	node := AllocType[SetLiteral](a)
	node.LBrace = lbrace
	node.Elements = elements
	node.RBrace = rbrace
	return node
}

// NewTupleLiteral 创建元组字面量节点
func (a *Arena) NewTupleLiteral(lparen token.Token, elements []Expression, rparen token.Token) *TupleLiteral {
	node := AllocType[TupleLiteral](a)
	node.LParen = lparen
	node.Elements = elements
	node.RParen = rparen
	return node
}

// NewIndexExpression 创建索引访问节点
func (a *Arena) NewIndexExpression(object Expression, lbracket token.Token, index Expression, rbracket token.Token) *IndexExpression {
	node := AllocType[IndexExpression](a)
	node.Object = object
	node.LBracket = lbracket
	node.Index = index
	node.RBracket = rbracket
	return node
}

// NewDotExpression 创建属性访问节点
func (a *Arena) NewDotExpression(object Expression, dot token.Token, name *Identifier) *DotExpression {
	node := AllocType[DotExpression](a)
	node.Object = object
	node.Dot = dot
	node.Name = name
	return node
}

// NewCallExpression 创建调用表达式节点
func (a *Arena) NewCallExpression(callee Expression, lparen token.Token, args []Expression, rparen token.Token) *CallExpression {
	node := AllocType[CallExpression](a)
	node.Callee = callee
	node.LParen = lparen
	node.Arguments = args
	node.RParen = rparen
	return node
}

// ============================================================================
// 语句节点工厂
// ============================================================================

// NewExpressionStatement 创建表达式语句节点
func (a *Arena) NewExpressionStatement(expr Expression) *ExpressionStatement {
	node := AllocType[ExpressionStatement](a)
	node.Expr = expr
	return node
}

// NewAssignStatement 创建赋值语句节点
func (a *Arena) NewAssignStatement(target Expression, assign token.Token, value Expression) *AssignStatement {
	node := AllocType[AssignStatement](a)
	node.Target = target
	node.Assign = assign
	node.Value = value
	return node
}

// NewBlockStatement 创建缩进块节点
func (a *Arena) NewBlockStatement(indent token.Token, stmts []Statement, dedent token.Token) *BlockStatement {
	node := AllocType[BlockStatement](a)
	node.Indent = indent
	node.Statements = stmts
	node.Dedent = dedent
	return node
}

// NewElifClause 创建 elif 分支节点
func (a *Arena) NewElifClause(tok token.Token, condition Expression, body *BlockStatement) *ElifClause {
	node := AllocType[ElifClause](a)
	node.Token = tok
	node.Condition = condition
	node.Body = body
	return node
}

// NewIfStatement 创建条件语句节点
func (a *Arena) NewIfStatement(tok token.Token, condition Expression, body *BlockStatement, elifs []*ElifClause, elseBody *BlockStatement) *IfStatement {
	node := AllocType[IfStatement](a)
	node.Token = tok
	node.Condition = condition
	node.Body = body
	node.Elifs = elifs
	node.Else = elseBody
	return node
}

// NewWhileStatement 创建 while 循环节点
func (a *Arena) NewWhileStatement(tok token.Token, condition Expression, body *BlockStatement) *WhileStatement {
	node := AllocType[WhileStatement](a)
	node.Token = tok
	node.Condition = condition
	node.Body = body
	return node
}

// NewForStatement 创建三段式 for 循环节点
func (a *Arena) NewForStatement(tok token.Token, init Statement, condition Expression, step Statement, body *BlockStatement) *ForStatement {
	node := AllocType[ForStatement](a)
	node.Token = tok
	node.Init = init
	node.Condition = condition
	node.Step = step
	node.Body = body
	return node
}

// NewFunctionStatement 创建函数定义节点
func (a *Arena) NewFunctionStatement(tok token.Token, name *Identifier, params []*Identifier, body *BlockStatement) *FunctionStatement {
	node := AllocType[FunctionStatement](a)
	node.Token = tok
	node.Name = name
	node.Params = params
	node.Body = body
	return node
}

// NewReturnStatement 创建 return 语句节点
func (a *Arena) NewReturnStatement(tok token.Token, value Expression) *ReturnStatement {
	node := AllocType[ReturnStatement](a)
	node.Token = tok
	node.Value = value
	return node
}
