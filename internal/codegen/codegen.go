package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// LLVM IR 发射
// ============================================================================
//
// 把 AST 直接降低为文本 IR。顶层语句被包进 i32 @main，每个 def
// 生成一个独立的 define（符号名加 cb_ 前缀避开 C 侧命名空间）。
//
// 局部变量统一在函数入口块 alloca，读写用 load/store，交给后续
// mem2reg 成 SSA。if/while/for 展开为显式的基本块和 br。and/or
// 用 phi 菱形短路，右操作数只在需要时求值。
//
// 遇到第一处无法静态定型的结构即停止，返回 CompileError。
//
// ============================================================================

// Generator AST 到 LLVM IR 文本的发射器
type Generator struct {
	e *emitter

	funcs map[string]*funcSig
	order []string

	strings   []string
	stringIdx map[string]int

	mainLocals []localDecl

	// 当前函数上下文
	vars       map[string]localDecl
	curFn      *funcSig // nil 表示在 @main 里
	curBlock   string
	terminated bool

	inferChanged bool
	err          *errors.Diagnostic
}

// Generate 把整个程序降低为一个 LLVM IR 模块
func Generate(program *ast.Program) (string, error) {
	g := &Generator{
		e:         &emitter{},
		funcs:     make(map[string]*funcSig),
		stringIdx: make(map[string]int),
	}

	// 先登记全部顶层函数，允许先调用后定义
	for _, stmt := range program.Statements {
		if def, ok := stmt.(*ast.FunctionStatement); ok {
			if _, dup := g.funcs[def.Name.Name]; dup {
				return "", errors.Newf(errors.CompileError, def.Name.Token.Pos,
					"function '%s' is defined twice", def.Name.Name)
			}
			g.funcs[def.Name.Name] = &funcSig{
				name:   def.Name.Name,
				node:   def,
				params: make([]staticType, len(def.Params)),
				ret:    typeUnknown,
			}
			g.order = append(g.order, def.Name.Name)
		}
	}

	g.inferTypes(program)
	if g.err != nil {
		return "", g.err
	}

	g.emitHeader()
	g.emitMain(program)
	for _, name := range g.order {
		g.emitFunction(g.funcs[name])
	}
	g.emitStringGlobals()

	if g.err != nil {
		return "", g.err
	}
	return g.e.String(), nil
}

func (g *Generator) emitHeader() {
	g.e.emit("; ModuleID = 'culebra'")
	g.e.emit(`source_filename = "culebra"`)
	g.e.emitBlank()
	g.e.emit("%%array = type { i64, i8* }")
	g.e.emitBlank()
	for _, decl := range runtimeDecls() {
		params := strings.Join(decl.Params, ", ")
		if decl.Variadic {
			params += ", ..."
		}
		g.e.emit("declare %s @%s(%s)", decl.Ret, decl.Name, params)
	}
	g.e.emitBlank()
}

// emitMain 顶层语句进 @main，def 跳过
func (g *Generator) emitMain(program *ast.Program) {
	g.e.emit("define i32 @main() {")
	g.startBlock("entry")

	g.vars = make(map[string]localDecl)
	g.curFn = nil
	g.emitAllocas(g.mainLocals)

	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.FunctionStatement); ok {
			continue
		}
		g.emitStmt(stmt)
	}

	if !g.terminated {
		g.e.emitInst("ret i32 0")
	}
	g.e.emit("}")
	g.e.emitBlank()
}

func (g *Generator) emitFunction(sig *funcSig) {
	if g.err != nil {
		return
	}

	params := make([]string, len(sig.node.Params))
	for i, param := range sig.node.Params {
		params[i] = fmt.Sprintf("%s %%%s", llvmType(sig.params[i]), param.Name)
	}

	g.e.emit("define %s @%s(%s) {", llvmType(sig.ret), mangled(sig.name), strings.Join(params, ", "))
	g.startBlock("entry")

	g.vars = make(map[string]localDecl)
	g.curFn = sig
	g.emitAllocas(sig.locals)

	// 参数落栈
	for _, param := range sig.node.Params {
		slot := g.vars[param.Name]
		if slot.typ == typeBool {
			widened := g.e.nextTmp()
			g.e.emitInst("%s = zext i1 %%%s to i8", widened, param.Name)
			g.e.emitInst("store i8 %s, i8* %s", widened, slot.name)
		} else {
			lt := llvmType(slot.typ)
			g.e.emitInst("store %s %%%s, %s* %s", lt, param.Name, lt, slot.name)
		}
	}

	for _, stmt := range sig.node.Body.Statements {
		g.emitStmt(stmt)
	}

	if !g.terminated {
		switch sig.ret {
		case typeVoid:
			g.e.emitInst("ret void")
		case typeFloat:
			g.e.emitInst("ret double %s", formatFloat(0))
		case typeBool:
			g.e.emitInst("ret i1 false")
		case typeString:
			g.e.emitInst("ret i8* null")
		case typeArray:
			g.e.emitInst("ret %%array* null")
		default:
			g.e.emitInst("ret i64 0")
		}
	}
	g.e.emit("}")
	g.e.emitBlank()
}

// mangled 用户函数的 IR 符号名
func mangled(name string) string {
	return "cb_" + name
}

// emitAllocas 入口块统一预留栈槽
func (g *Generator) emitAllocas(locals []localDecl) {
	for _, decl := range locals {
		if decl.typ == typeUnknown || decl.typ == typeVoid {
			continue
		}
		reg := fmt.Sprintf("%%%s.addr", decl.name)
		g.e.emitInst("%s = alloca %s", reg, storageType(decl.typ))
		g.vars[decl.name] = localDecl{name: reg, typ: decl.typ}
	}
}

// startBlock 开启新基本块并更新当前块名
func (g *Generator) startBlock(label string) {
	g.e.emit("%s:", label)
	g.curBlock = label
	g.terminated = false
}

// branch 无条件跳转，已终结的块跳过
func (g *Generator) branch(label string) {
	if g.terminated {
		return
	}
	g.e.emitInst("br label %%%s", label)
	g.terminated = true
}

func (g *Generator) condBranch(cond, thenLabel, elseLabel string) {
	if g.terminated {
		return
	}
	g.e.emitInst("br i1 %s, label %%%s, label %%%s", cond, thenLabel, elseLabel)
	g.terminated = true
}

// ============================================================================
// 语句
// ============================================================================

func (g *Generator) emitStmt(stmt ast.Statement) {
	if g.err != nil || g.terminated {
		return
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		g.emitExpr(s.Expr)

	case *ast.AssignStatement:
		g.emitAssign(s)

	case *ast.IfStatement:
		g.emitIf(s)

	case *ast.WhileStatement:
		g.emitWhile(s)

	case *ast.ForStatement:
		g.emitFor(s)

	case *ast.ReturnStatement:
		g.emitReturn(s)

	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			g.emitStmt(inner)
		}

	case *ast.FunctionStatement:
		g.fail(s.Token.Pos, "nested function definitions are not supported in compiled code")
	}
}

func (g *Generator) emitAssign(s *ast.AssignStatement) {
	switch target := s.Target.(type) {
	case *ast.Identifier:
		reg, typ := g.emitExpr(s.Value)
		slot, ok := g.vars[target.Name]
		if !ok {
			g.fail(target.Token.Pos, "cannot type variable '%s'", target.Name)
			return
		}
		reg, typ = g.coerce(reg, typ, slot.typ, s.Assign.Pos)
		if g.err != nil {
			return
		}
		if slot.typ == typeBool {
			widened := g.e.nextTmp()
			g.e.emitInst("%s = zext i1 %s to i8", widened, reg)
			g.e.emitInst("store i8 %s, i8* %s", widened, slot.name)
			return
		}
		lt := llvmType(slot.typ)
		g.e.emitInst("store %s %s, %s* %s", lt, reg, lt, slot.name)

	case *ast.IndexExpression:
		objReg, objType := g.emitExpr(target.Object)
		if objType != typeArray {
			g.fail(target.LBracket.Pos, "index assignment in compiled code requires an array, got %s", objType)
			return
		}
		idxReg, idxType := g.emitExpr(target.Index)
		if idxType != typeInt {
			g.fail(target.LBracket.Pos, "array index must be an integer, got %s", idxType)
			return
		}
		valReg, valType := g.emitExpr(s.Value)
		if valType != typeInt {
			g.fail(s.Assign.Pos, "compiled arrays hold integer elements, got %s", valType)
			return
		}
		g.e.emitInst("call void @%s(%%array* %s, i64 %s, i64 %s)", fnArraySet, objReg, idxReg, valReg)
	}
}

func (g *Generator) emitIf(s *ast.IfStatement) {
	endLabel := g.e.nextLabel("if_end")

	// if 和每个 elif 构成一条判断链
	conds := []struct {
		cond ast.Expression
		body *ast.BlockStatement
	}{{s.Condition, s.Body}}
	for _, elif := range s.Elifs {
		conds = append(conds, struct {
			cond ast.Expression
			body *ast.BlockStatement
		}{elif.Condition, elif.Body})
	}

	for i, branch := range conds {
		condReg := g.emitTruthy(branch.cond)
		thenLabel := g.e.nextLabel("if_then")
		var nextLabel string
		if i+1 < len(conds) {
			nextLabel = g.e.nextLabel("if_next")
		} else if s.Else != nil {
			nextLabel = g.e.nextLabel("if_else")
		} else {
			nextLabel = endLabel
		}

		g.condBranch(condReg, thenLabel, nextLabel)
		g.startBlock(thenLabel)
		for _, stmt := range branch.body.Statements {
			g.emitStmt(stmt)
		}
		g.branch(endLabel)

		if nextLabel == endLabel {
			break
		}
		g.startBlock(nextLabel)
		if i+1 == len(conds) && s.Else != nil {
			for _, stmt := range s.Else.Statements {
				g.emitStmt(stmt)
			}
			g.branch(endLabel)
		}
	}

	g.startBlock(endLabel)
}

func (g *Generator) emitWhile(s *ast.WhileStatement) {
	condLabel := g.e.nextLabel("while_cond")
	bodyLabel := g.e.nextLabel("while_body")
	endLabel := g.e.nextLabel("while_end")

	g.branch(condLabel)
	g.startBlock(condLabel)
	condReg := g.emitTruthy(s.Condition)
	g.condBranch(condReg, bodyLabel, endLabel)

	g.startBlock(bodyLabel)
	for _, stmt := range s.Body.Statements {
		g.emitStmt(stmt)
	}
	g.branch(condLabel)

	g.startBlock(endLabel)
}

func (g *Generator) emitFor(s *ast.ForStatement) {
	condLabel := g.e.nextLabel("for_cond")
	bodyLabel := g.e.nextLabel("for_body")
	stepLabel := g.e.nextLabel("for_step")
	endLabel := g.e.nextLabel("for_end")

	g.emitStmt(s.Init)
	g.branch(condLabel)

	g.startBlock(condLabel)
	condReg := g.emitTruthy(s.Condition)
	g.condBranch(condReg, bodyLabel, endLabel)

	g.startBlock(bodyLabel)
	for _, stmt := range s.Body.Statements {
		g.emitStmt(stmt)
	}
	g.branch(stepLabel)

	g.startBlock(stepLabel)
	g.emitStmt(s.Step)
	g.branch(condLabel)

	g.startBlock(endLabel)
}

func (g *Generator) emitReturn(s *ast.ReturnStatement) {
	if g.curFn == nil {
		g.fail(s.Token.Pos, "'return' outside function")
		return
	}

	if s.Value == nil {
		if g.curFn.ret != typeVoid {
			g.fail(s.Token.Pos, "%s() must return a %s", g.curFn.name, g.curFn.ret)
			return
		}
		g.e.emitInst("ret void")
		g.terminated = true
		return
	}

	reg, typ := g.emitExpr(s.Value)
	reg, typ = g.coerce(reg, typ, g.curFn.ret, s.Token.Pos)
	if g.err != nil {
		return
	}
	g.e.emitInst("ret %s %s", llvmType(typ), reg)
	g.terminated = true
}

// ============================================================================
// 表达式
// ============================================================================

// emitExpr 发射表达式，返回持有结果的寄存器（或内联常量）和类型
func (g *Generator) emitExpr(expr ast.Expression) (string, staticType) {
	if g.err != nil {
		return "0", typeInt
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return strconv.FormatInt(e.Value, 10), typeInt

	case *ast.FloatLiteral:
		return formatFloat(e.Value), typeFloat

	case *ast.BooleanLiteral:
		if e.Value {
			return "true", typeBool
		}
		return "false", typeBool

	case *ast.StringLiteral:
		return g.stringPtr(e.Value), typeString

	case *ast.Identifier:
		slot, ok := g.vars[e.Name]
		if !ok {
			g.fail(e.Token.Pos, "undefined variable '%s'", e.Name)
			return "0", typeInt
		}
		if slot.typ == typeBool {
			raw := g.e.nextTmp()
			g.e.emitInst("%s = load i8, i8* %s", raw, slot.name)
			narrowed := g.e.nextTmp()
			g.e.emitInst("%s = trunc i8 %s to i1", narrowed, raw)
			return narrowed, typeBool
		}
		lt := llvmType(slot.typ)
		reg := g.e.nextTmp()
		g.e.emitInst("%s = load %s, %s* %s", reg, lt, lt, slot.name)
		return reg, slot.typ

	case *ast.GroupingExpression:
		return g.emitExpr(e.Expr)

	case *ast.UnaryExpression:
		return g.emitUnary(e)

	case *ast.BinaryExpression:
		return g.emitBinary(e)

	case *ast.CallExpression:
		return g.emitCall(e)

	case *ast.IndexExpression:
		return g.emitIndex(e)

	case *ast.ArrayLiteral:
		return g.emitArrayLiteral(e)

	case *ast.MapLiteral:
		g.fail(e.LBrace.Pos, "map literals are not supported in compiled code")
	case *ast.SetLiteral:
		g.fail(e.LBrace.Pos, "set literals are not supported in compiled code")
	case *ast.TupleLiteral:
		g.fail(e.LParen.Pos, "tuples are not supported in compiled code")
	case *ast.DotExpression:
		g.fail(e.Dot.Pos, "method calls are not supported in compiled code")
	default:
		g.fail(expr.Pos(), "cannot compile expression %T", expr)
	}
	return "0", typeInt
}

func (g *Generator) emitUnary(e *ast.UnaryExpression) (string, staticType) {
	if e.Operator.Type == token.NOT {
		operand := g.emitTruthy(e.Operand)
		reg := g.e.nextTmp()
		g.e.emitInst("%s = xor i1 %s, true", reg, operand)
		return reg, typeBool
	}

	operand, typ := g.emitExpr(e.Operand)
	switch typ {
	case typeInt:
		reg := g.e.nextTmp()
		g.e.emitInst("%s = sub i64 0, %s", reg, operand)
		return reg, typeInt
	case typeFloat:
		reg := g.e.nextTmp()
		g.e.emitInst("%s = fneg double %s", reg, operand)
		return reg, typeFloat
	}
	g.fail(e.Operator.Pos, "unary '-' requires a number, got %s", typ)
	return "0", typeInt
}

func (g *Generator) emitBinary(e *ast.BinaryExpression) (string, staticType) {
	if e.Operator.Type == token.AND || e.Operator.Type == token.OR {
		return g.emitShortCircuit(e)
	}

	leftReg, leftType := g.emitExpr(e.Left)
	rightReg, rightType := g.emitExpr(e.Right)
	if g.err != nil {
		return "0", typeInt
	}

	op := e.Operator

	switch op.Type {
	case token.PLUS:
		if leftType == typeString && rightType == typeString {
			reg := g.e.nextTmp()
			g.e.emitInst("%s = call i8* @%s(i8* %s, i8* %s)", reg, fnStrConcat, leftReg, rightReg)
			return reg, typeString
		}
		fallthrough
	case token.MINUS, token.STAR, token.SLASH:
		return g.emitArith(op, leftReg, leftType, rightReg, rightType)

	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return g.emitCompare(op, leftReg, leftType, rightReg, rightType)
	}

	g.fail(op.Pos, "cannot compile operator '%s'", op.Literal)
	return "0", typeInt
}

// emitArith 算术：整数 op 整数得整数，混合提升为浮点，除法恒浮点
func (g *Generator) emitArith(op token.Token, leftReg string, leftType staticType, rightReg string, rightType staticType) (string, staticType) {
	if !numeric(leftType) || !numeric(rightType) {
		g.fail(op.Pos, "unsupported operand types for '%s': %s and %s", op.Literal, leftType, rightType)
		return "0", typeInt
	}

	wantFloat := op.Type == token.SLASH || leftType == typeFloat || rightType == typeFloat
	if wantFloat {
		leftReg = g.promote(leftReg, leftType)
		rightReg = g.promote(rightReg, rightType)
		var inst string
		switch op.Type {
		case token.PLUS:
			inst = "fadd"
		case token.MINUS:
			inst = "fsub"
		case token.STAR:
			inst = "fmul"
		case token.SLASH:
			inst = "fdiv"
		}
		reg := g.e.nextTmp()
		g.e.emitInst("%s = %s double %s, %s", reg, inst, leftReg, rightReg)
		return reg, typeFloat
	}

	var inst string
	switch op.Type {
	case token.PLUS:
		inst = "add"
	case token.MINUS:
		inst = "sub"
	case token.STAR:
		inst = "mul"
	}
	reg := g.e.nextTmp()
	g.e.emitInst("%s = %s i64 %s, %s", reg, inst, leftReg, rightReg)
	return reg, typeInt
}

// emitCompare 整数 icmp 带符号，浮点 fcmp ordered
func (g *Generator) emitCompare(op token.Token, leftReg string, leftType staticType, rightReg string, rightType staticType) (string, staticType) {
	if leftType == typeBool && rightType == typeBool && (op.Type == token.EQ || op.Type == token.NE) {
		cond := "eq"
		if op.Type == token.NE {
			cond = "ne"
		}
		reg := g.e.nextTmp()
		g.e.emitInst("%s = icmp %s i1 %s, %s", reg, cond, leftReg, rightReg)
		return reg, typeBool
	}

	if !numeric(leftType) || !numeric(rightType) {
		g.fail(op.Pos, "comparison of %s and %s is not supported in compiled code", leftType, rightType)
		return "false", typeBool
	}

	if leftType == typeFloat || rightType == typeFloat {
		leftReg = g.promote(leftReg, leftType)
		rightReg = g.promote(rightReg, rightType)
		var cond string
		switch op.Type {
		case token.EQ:
			cond = "oeq"
		case token.NE:
			cond = "one"
		case token.LT:
			cond = "olt"
		case token.LE:
			cond = "ole"
		case token.GT:
			cond = "ogt"
		case token.GE:
			cond = "oge"
		}
		reg := g.e.nextTmp()
		g.e.emitInst("%s = fcmp %s double %s, %s", reg, cond, leftReg, rightReg)
		return reg, typeBool
	}

	var cond string
	switch op.Type {
	case token.EQ:
		cond = "eq"
	case token.NE:
		cond = "ne"
	case token.LT:
		cond = "slt"
	case token.LE:
		cond = "sle"
	case token.GT:
		cond = "sgt"
	case token.GE:
		cond = "sge"
	}
	reg := g.e.nextTmp()
	g.e.emitInst("%s = icmp %s i64 %s, %s", reg, cond, leftReg, rightReg)
	return reg, typeBool
}

// emitShortCircuit and/or 的 phi 菱形，右操作数只在需要时求值
func (g *Generator) emitShortCircuit(e *ast.BinaryExpression) (string, staticType) {
	leftReg := g.emitTruthy(e.Left)
	leftBlock := g.curBlock

	rhsLabel := g.e.nextLabel("sc_rhs")
	endLabel := g.e.nextLabel("sc_end")

	isAnd := e.Operator.Type == token.AND
	if isAnd {
		g.condBranch(leftReg, rhsLabel, endLabel)
	} else {
		g.condBranch(leftReg, endLabel, rhsLabel)
	}

	g.startBlock(rhsLabel)
	rightReg := g.emitTruthy(e.Right)
	rightBlock := g.curBlock
	g.branch(endLabel)

	g.startBlock(endLabel)
	shortValue := "false"
	if !isAnd {
		shortValue = "true"
	}
	reg := g.e.nextTmp()
	g.e.emitInst("%s = phi i1 [ %s, %%%s ], [ %s, %%%s ]", reg, shortValue, leftBlock, rightReg, rightBlock)
	return reg, typeBool
}

// emitTruthy 求值并折算成 i1
func (g *Generator) emitTruthy(expr ast.Expression) string {
	reg, typ := g.emitExpr(expr)
	switch typ {
	case typeBool:
		return reg
	case typeInt:
		out := g.e.nextTmp()
		g.e.emitInst("%s = icmp ne i64 %s, 0", out, reg)
		return out
	case typeFloat:
		out := g.e.nextTmp()
		g.e.emitInst("%s = fcmp one double %s, %s", out, reg, formatFloat(0))
		return out
	}
	g.fail(expr.Pos(), "condition must be int, float, or bool in compiled code, got %s", typ)
	return "false"
}

// promote 整数提升为 double
func (g *Generator) promote(reg string, typ staticType) string {
	if typ != typeInt {
		return reg
	}
	out := g.e.nextTmp()
	g.e.emitInst("%s = sitofp i64 %s to double", out, reg)
	return out
}

// coerce 赋值/传参/返回位置的隐式转换，只允许 int -> float
func (g *Generator) coerce(reg string, from, to staticType, pos token.Position) (string, staticType) {
	if from == to || to == typeUnknown {
		return reg, from
	}
	if from == typeInt && to == typeFloat {
		return g.promote(reg, typeInt), typeFloat
	}
	g.fail(pos, "cannot use %s where %s is required", from, to)
	return reg, from
}

// ============================================================================
// 下标与数组
// ============================================================================

func (g *Generator) emitIndex(e *ast.IndexExpression) (string, staticType) {
	objReg, objType := g.emitExpr(e.Object)
	idxReg, idxType := g.emitExpr(e.Index)
	if g.err != nil {
		return "0", typeInt
	}
	if idxType != typeInt {
		g.fail(e.LBracket.Pos, "index must be an integer, got %s", idxType)
		return "0", typeInt
	}

	switch objType {
	case typeArray:
		ptr := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(%%array* %s, i64 %s)", ptr, fnArrayGet, objReg, idxReg)
		cast := g.e.nextTmp()
		g.e.emitInst("%s = bitcast i8* %s to i64*", cast, ptr)
		out := g.e.nextTmp()
		g.e.emitInst("%s = load i64, i64* %s", out, cast)
		return out, typeInt

	case typeString:
		// 字符串下标取字节码值
		ptr := g.e.nextTmp()
		g.e.emitInst("%s = getelementptr i8, i8* %s, i64 %s", ptr, objReg, idxReg)
		raw := g.e.nextTmp()
		g.e.emitInst("%s = load i8, i8* %s", raw, ptr)
		out := g.e.nextTmp()
		g.e.emitInst("%s = sext i8 %s to i64", out, raw)
		return out, typeInt
	}

	g.fail(e.LBracket.Pos, "indexing %s is not supported in compiled code", objType)
	return "0", typeInt
}

func (g *Generator) emitArrayLiteral(e *ast.ArrayLiteral) (string, staticType) {
	arr := g.e.nextTmp()
	g.e.emitInst("%s = call %%array* @%s(i64 %d, i64 8)", arr, fnCreateArray, len(e.Elements))

	for i, elem := range e.Elements {
		reg, typ := g.emitExpr(elem)
		if g.err != nil {
			return arr, typeArray
		}
		if typ != typeInt {
			g.fail(elem.Pos(), "compiled arrays hold integer elements, got %s", typ)
			return arr, typeArray
		}
		g.e.emitInst("call void @%s(%%array* %s, i64 %d, i64 %s)", fnArraySet, arr, i, reg)
	}
	return arr, typeArray
}

// ============================================================================
// 调用
// ============================================================================

func (g *Generator) emitCall(e *ast.CallExpression) (string, staticType) {
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		g.fail(e.Callee.Pos(), "only named functions are callable in compiled code")
		return "0", typeInt
	}

	if sig, exists := g.funcs[ident.Name]; exists {
		return g.emitUserCall(sig, e)
	}
	return g.emitBuiltinCall(ident.Name, e)
}

func (g *Generator) emitUserCall(sig *funcSig, e *ast.CallExpression) (string, staticType) {
	if len(e.Arguments) != len(sig.params) {
		g.fail(e.LParen.Pos, "%s() takes %d arguments (%d given)", sig.name, len(sig.params), len(e.Arguments))
		return "0", typeInt
	}

	args := make([]string, len(e.Arguments))
	for i, arg := range e.Arguments {
		reg, typ := g.emitExpr(arg)
		reg, typ = g.coerce(reg, typ, sig.params[i], arg.Pos())
		if g.err != nil {
			return "0", typeInt
		}
		args[i] = fmt.Sprintf("%s %s", llvmType(typ), reg)
	}

	callee := mangled(sig.name)
	if sig.ret == typeVoid {
		g.e.emitInst("call void @%s(%s)", callee, strings.Join(args, ", "))
		return "", typeVoid
	}
	reg := g.e.nextTmp()
	g.e.emitInst("%s = call %s @%s(%s)", reg, llvmType(sig.ret), callee, strings.Join(args, ", "))
	return reg, sig.ret
}

func (g *Generator) emitBuiltinCall(name string, e *ast.CallExpression) (string, staticType) {
	pos := e.LParen.Pos

	switch name {
	case "print":
		g.emitPrint(e)
		return "", typeVoid

	case "input":
		var prompt string
		if len(e.Arguments) == 0 {
			prompt = g.stringPtr("")
		} else if len(e.Arguments) == 1 {
			reg, typ := g.emitExpr(e.Arguments[0])
			if typ != typeString {
				g.fail(pos, "input() prompt must be a string, got %s", typ)
				return "0", typeInt
			}
			prompt = reg
		} else {
			g.fail(pos, "input() takes at most 1 argument (%d given)", len(e.Arguments))
			return "0", typeInt
		}
		reg := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(i8* %s)", reg, fnInput, prompt)
		return reg, typeString

	case "len":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		out := g.e.nextTmp()
		switch typ {
		case typeArray:
			g.e.emitInst("%s = call i64 @%s(%%array* %s)", out, fnLenArray, reg)
		case typeString:
			g.e.emitInst("%s = call i64 @%s(i8* %s)", out, fnLen, reg)
		default:
			g.fail(pos, "len() in compiled code requires a string or array, got %s", typ)
			return "0", typeInt
		}
		return out, typeInt

	case "chr":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		if typ != typeInt {
			g.fail(pos, "chr() requires an int, got %s", typ)
			return "0", typeInt
		}
		out := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(i64 %s)", out, fnChr, reg)
		return out, typeString

	case "ord":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		if typ != typeString {
			g.fail(pos, "ord() requires a string, got %s", typ)
			return "0", typeInt
		}
		out := g.e.nextTmp()
		g.e.emitInst("%s = call i64 @%s(i8* %s)", out, fnOrd, reg)
		return out, typeInt

	case "str":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		return g.toString(reg, typ, pos), typeString

	case "int":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		switch typ {
		case typeInt:
			return reg, typeInt
		case typeFloat:
			out := g.e.nextTmp()
			g.e.emitInst("%s = fptosi double %s to i64", out, reg)
			return out, typeInt
		case typeBool:
			out := g.e.nextTmp()
			g.e.emitInst("%s = zext i1 %s to i64", out, reg)
			return out, typeInt
		}
		g.fail(pos, "int() in compiled code requires a number or bool, got %s", typ)
		return "0", typeInt

	case "float":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		switch typ {
		case typeFloat:
			return reg, typeFloat
		case typeInt:
			return g.promote(reg, typeInt), typeFloat
		}
		g.fail(pos, "float() in compiled code requires a number, got %s", typ)
		return "0", typeInt

	case "abs":
		reg, typ := g.requireOneArg(name, e)
		if g.err != nil {
			return "0", typeInt
		}
		switch typ {
		case typeInt:
			neg := g.e.nextTmp()
			g.e.emitInst("%s = sub i64 0, %s", neg, reg)
			isNeg := g.e.nextTmp()
			g.e.emitInst("%s = icmp slt i64 %s, 0", isNeg, reg)
			out := g.e.nextTmp()
			g.e.emitInst("%s = select i1 %s, i64 %s, i64 %s", out, isNeg, neg, reg)
			return out, typeInt
		case typeFloat:
			out := g.e.nextTmp()
			g.e.emitInst("%s = call double @llvm.fabs.f64(double %s)", out, reg)
			return out, typeFloat
		}
		g.fail(pos, "abs() requires a number, got %s", typ)
		return "0", typeInt
	}

	g.fail(pos, "%s() is not supported in compiled code", name)
	return "0", typeInt
}

func (g *Generator) requireOneArg(name string, e *ast.CallExpression) (string, staticType) {
	if len(e.Arguments) != 1 {
		g.fail(e.LParen.Pos, "%s() takes exactly 1 argument (%d given)", name, len(e.Arguments))
		return "0", typeInt
	}
	return g.emitExpr(e.Arguments[0])
}

// emitPrint 按静态类型选择打印重载，多参数走 print_multi
func (g *Generator) emitPrint(e *ast.CallExpression) {
	switch len(e.Arguments) {
	case 0:
		g.e.emitInst("call void @%s(i8* %s)", fnPrintString, g.stringPtr(""))

	case 1:
		reg, typ := g.emitExpr(e.Arguments[0])
		if g.err != nil {
			return
		}
		switch typ {
		case typeInt:
			g.e.emitInst("call void @%s(i64 %s)", fnPrintInt, reg)
		case typeFloat:
			g.e.emitInst("call void @%s(double %s)", fnPrintFloat, reg)
		case typeString:
			g.e.emitInst("call void @%s(i8* %s)", fnPrintString, reg)
		case typeBool:
			g.e.emitInst("call void @%s(i1 %s)", fnPrintBool, reg)
		default:
			g.fail(e.Arguments[0].Pos(), "cannot print %s in compiled code", typ)
		}

	default:
		args := make([]string, 0, len(e.Arguments)+1)
		args = append(args, fmt.Sprintf("i32 %d", len(e.Arguments)))
		for _, arg := range e.Arguments {
			reg, typ := g.emitExpr(arg)
			if g.err != nil {
				return
			}
			args = append(args, "i8* "+g.toString(reg, typ, arg.Pos()))
		}
		g.e.emitInst("call void (i32, ...) @%s(%s)", fnPrintMulti, strings.Join(args, ", "))
	}
}

// toString 任意静态类型折算为 i8*
func (g *Generator) toString(reg string, typ staticType, pos token.Position) string {
	switch typ {
	case typeString:
		return reg
	case typeInt:
		out := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(i64 %s)", out, fnIntToStr, reg)
		return out
	case typeFloat:
		out := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(double %s)", out, fnFloatToStr, reg)
		return out
	case typeBool:
		out := g.e.nextTmp()
		g.e.emitInst("%s = call i8* @%s(i1 %s)", out, fnBoolToStr, reg)
		return out
	}
	g.fail(pos, "cannot convert %s to a string in compiled code", typ)
	return "null"
}

// ============================================================================
// 字符串常量
// ============================================================================

// stringPtr 返回指向全局字符串常量首字节的 i8*
func (g *Generator) stringPtr(s string) string {
	idx, ok := g.stringIdx[s]
	if !ok {
		idx = len(g.strings)
		g.strings = append(g.strings, s)
		g.stringIdx[s] = idx
	}
	size := len(s) + 1
	reg := g.e.nextTmp()
	g.e.emitInst("%s = getelementptr [%d x i8], [%d x i8]* @.str.%d, i32 0, i32 0", reg, size, size, idx)
	return reg
}

// emitStringGlobals 全部字符串常量集中放在模块尾部
func (g *Generator) emitStringGlobals() {
	if len(g.strings) == 0 {
		return
	}
	g.e.emit("; String constants")
	for idx, s := range g.strings {
		g.e.emit(`@.str.%d = private unnamed_addr constant [%d x i8] c"%s\00"`, idx, len(s)+1, escapeString(s))
	}
}
