package ast

import (
	"testing"

	"github.com/culebra-lang/culebra/internal/token"
)

func tok(t token.TokenType, literal string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: literal,
		Pos:     token.Position{Filename: "test.cb", Line: line, Column: col},
	}
}

// TestNodeString 验证各节点的调试输出
func TestNodeString(t *testing.T) {
	arena := NewArena(0)
	defer arena.Free()

	x := arena.NewIdentifier(tok(token.IDENT, "x", 1, 1))
	one := arena.NewIntegerLiteral(tok(token.INT, "1", 1, 5), 1)
	sum := arena.NewBinaryExpression(x, tok(token.PLUS, "+", 1, 3), one)

	if got := sum.String(); got != "(x + 1)" {
		t.Errorf("BinaryExpression.String() = %q, want %q", got, "(x + 1)")
	}

	neg := arena.NewUnaryExpression(tok(token.MINUS, "-", 1, 1), x)
	if got := neg.String(); got != "(-x)" {
		t.Errorf("UnaryExpression.String() = %q, want %q", got, "(-x)")
	}

	notX := arena.NewUnaryExpression(tok(token.NOT, "not", 1, 1), x)
	if got := notX.String(); got != "(not x)" {
		t.Errorf("UnaryExpression.String() = %q, want %q", got, "(not x)")
	}

	call := arena.NewCallExpression(
		arena.NewIdentifier(tok(token.IDENT, "print", 2, 1)),
		tok(token.LPAREN, "(", 2, 6),
		[]Expression{x, one},
		tok(token.RPAREN, ")", 2, 10),
	)
	if got := call.String(); got != "print(x, 1)" {
		t.Errorf("CallExpression.String() = %q, want %q", got, "print(x, 1)")
	}

	dot := arena.NewDotExpression(x, tok(token.DOT, ".", 3, 2),
		arena.NewIdentifier(tok(token.IDENT, "push", 3, 3)))
	if got := dot.String(); got != "x.push" {
		t.Errorf("DotExpression.String() = %q, want %q", got, "x.push")
	}

	idx := arena.NewIndexExpression(x, tok(token.LBRACKET, "[", 4, 2), one, tok(token.RBRACKET, "]", 4, 4))
	if got := idx.String(); got != "x[1]" {
		t.Errorf("IndexExpression.String() = %q, want %q", got, "x[1]")
	}
}

// TestTupleString 元组输出
func TestTupleString(t *testing.T) {
	arena := NewArena(0)
	defer arena.Free()

	one := arena.NewIntegerLiteral(tok(token.INT, "1", 1, 2), 1)
	two := arena.NewIntegerLiteral(tok(token.INT, "2", 1, 5), 2)

	pair := arena.NewTupleLiteral(tok(token.LPAREN, "(", 1, 1),
		[]Expression{one, two}, tok(token.RPAREN, ")", 1, 7))
	if got := pair.String(); got != "(1, 2)" {
		t.Errorf("pair tuple String() = %q, want %q", got, "(1, 2)")
	}
}

// TestAssignStatementString 赋值语句输出
func TestAssignStatementString(t *testing.T) {
	arena := NewArena(0)
	defer arena.Free()

	target := arena.NewIdentifier(tok(token.IDENT, "total", 1, 1))
	value := arena.NewIntegerLiteral(tok(token.INT, "0", 1, 9), 0)
	assign := arena.NewAssignStatement(target, tok(token.ASSIGN, "=", 1, 7), value)

	if got := assign.String(); got != "total = 0" {
		t.Errorf("AssignStatement.String() = %q, want %q", got, "total = 0")
	}
}

// TestArenaAllocation Arena 分配的节点应当各自独立
func TestArenaAllocation(t *testing.T) {
	arena := NewArena(128) // 故意用小块触发 grow
	defer arena.Free()

	nodes := make([]*IntegerLiteral, 100)
	for i := range nodes {
		nodes[i] = arena.NewIntegerLiteral(tok(token.INT, "0", 1, 1), int64(i))
	}
	for i, n := range nodes {
		if n.Value != int64(i) {
			t.Fatalf("node %d value = %d, want %d", i, n.Value, i)
		}
	}

	stats := arena.Stats()
	if stats.ChunkCount < 2 {
		t.Errorf("expected multiple chunks with 128-byte chunk size, got %d", stats.ChunkCount)
	}
}

// TestArenaReset Reset 后可以继续分配
func TestArenaReset(t *testing.T) {
	arena := NewArena(0)
	defer arena.Free()

	_ = arena.NewIdentifier(tok(token.IDENT, "a", 1, 1))
	arena.Reset()

	n := arena.NewIdentifier(tok(token.IDENT, "b", 1, 1))
	if n.Name != "b" {
		t.Errorf("post-reset node Name = %q, want %q", n.Name, "b")
	}
}

// TestPositions 位置信息覆盖节点范围
func TestPositions(t *testing.T) {
	arena := NewArena(0)
	defer arena.Free()

	left := arena.NewIdentifier(tok(token.IDENT, "a", 2, 5))
	right := arena.NewIntegerLiteral(tok(token.INT, "3", 2, 9), 3)
	bin := arena.NewBinaryExpression(left, tok(token.PLUS, "+", 2, 7), right)

	if bin.Pos().Line != 2 || bin.Pos().Column != 5 {
		t.Errorf("Pos() = %v, want line 2 col 5", bin.Pos())
	}
	if bin.End().Line != 2 || bin.End().Column != 9 {
		t.Errorf("End() = %v, want line 2 col 9", bin.End())
	}
}
