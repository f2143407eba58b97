package codegen

import (
	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// 类型传播
// ============================================================================
//
// 发射前的流不敏感传播，为每个函数定出参数类型、返回类型和所有
// 局部变量的类型。参数默认为整数，被浮点参与的运算或调用点钉为
// 浮点；首个具体使用获胜，不可调和的使用是 CompileError。
//
// 传播是单调的（Unknown 只会细化为具体类型），对整个程序反复
// 扫描直到没有变化，以处理先调用后定义的函数；扫描最多 maxRounds
// 轮，到达上限时不论是否收敛都进入默认定型。
//
// ============================================================================

// funcSig 一个用户函数的编译期签名
type funcSig struct {
	name   string
	node   *ast.FunctionStatement
	params []staticType
	ret    staticType
	locals []localDecl // 含参数，按首次赋值顺序
}

// localDecl 一个将在入口块 alloca 的名字
type localDecl struct {
	name string
	typ  staticType
}

// scope 一次扫描中的名字定型
type scope struct {
	types map[string]staticType
	order []string
}

func newScope() *scope {
	return &scope{types: make(map[string]staticType)}
}

func (s *scope) get(name string) staticType {
	if t, ok := s.types[name]; ok {
		return t
	}
	return typeUnknown
}

func (s *scope) set(name string, t staticType) {
	if _, ok := s.types[name]; !ok {
		s.order = append(s.order, name)
	}
	s.types[name] = t
}

func (s *scope) decls() []localDecl {
	decls := make([]localDecl, 0, len(s.order))
	for _, name := range s.order {
		decls = append(decls, localDecl{name: name, typ: s.types[name]})
	}
	return decls
}

// inferTypes 运行传播直到没有变化（最多 maxRounds 轮），随后将剩余 Unknown 定为默认值
func (g *Generator) inferTypes(program *ast.Program) {
	const maxRounds = 4

	for round := 0; round < maxRounds; round++ {
		g.inferChanged = false
		g.scanProgram(program)
		if g.err != nil || !g.inferChanged {
			break
		}
	}
	if g.err != nil {
		return
	}

	// 默认：未被任何使用钉住的参数是整数，没有带值 return 的函数无返回值
	for _, name := range g.order {
		sig := g.funcs[name]
		for i, t := range sig.params {
			if t == typeUnknown {
				sig.params[i] = typeInt
			}
		}
		if sig.ret == typeUnknown {
			sig.ret = typeVoid
		}
	}

	// 终扫：在定稿的签名下收集每个函数和顶层的局部声明
	g.scanProgram(program)
}

// scanProgram 扫描顶层和每个函数体
func (g *Generator) scanProgram(program *ast.Program) {
	top := newScope()
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.FunctionStatement); ok {
			continue
		}
		g.scanStmt(stmt, top, nil)
	}
	g.mainLocals = top.decls()

	for _, name := range g.order {
		sig := g.funcs[name]
		fnScope := newScope()
		for i, param := range sig.node.Params {
			fnScope.set(param.Name, sig.params[i])
		}
		for _, stmt := range sig.node.Body.Statements {
			g.scanStmt(stmt, fnScope, sig)
		}
		// 体内使用可能细化了参数类型，写回签名
		for i, param := range sig.node.Params {
			g.pinParam(sig, i, fnScope.get(param.Name), param.Token.Pos)
		}
		sig.locals = fnScope.decls()
	}
}

func (g *Generator) scanStmt(stmt ast.Statement, sc *scope, fn *funcSig) {
	if g.err != nil {
		return
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		g.scanExpr(s.Expr, sc, fn)

	case *ast.AssignStatement:
		valueType := g.scanExpr(s.Value, sc, fn)
		if target, ok := s.Target.(*ast.Identifier); ok {
			existing := sc.get(target.Name)
			merged, ok := unify(existing, valueType)
			if !ok {
				// 同一栈槽装不下两种类型
				g.fail(target.Token.Pos, "variable '%s' is used as both %s and %s in compiled code",
					target.Name, existing, valueType)
				return
			}
			sc.set(target.Name, merged)
		} else if target, ok := s.Target.(*ast.IndexExpression); ok {
			g.scanExpr(target.Object, sc, fn)
			g.scanExpr(target.Index, sc, fn)
		}

	case *ast.IfStatement:
		g.scanExpr(s.Condition, sc, fn)
		g.scanBlock(s.Body, sc, fn)
		for _, elif := range s.Elifs {
			g.scanExpr(elif.Condition, sc, fn)
			g.scanBlock(elif.Body, sc, fn)
		}
		if s.Else != nil {
			g.scanBlock(s.Else, sc, fn)
		}

	case *ast.WhileStatement:
		g.scanExpr(s.Condition, sc, fn)
		g.scanBlock(s.Body, sc, fn)

	case *ast.ForStatement:
		g.scanStmt(s.Init, sc, fn)
		g.scanExpr(s.Condition, sc, fn)
		g.scanBlock(s.Body, sc, fn)
		g.scanStmt(s.Step, sc, fn)

	case *ast.ReturnStatement:
		var t staticType = typeVoid
		if s.Value != nil {
			t = g.scanExpr(s.Value, sc, fn)
		}
		if fn != nil && t != typeUnknown {
			merged, ok := unify(fn.ret, t)
			if !ok {
				g.fail(s.Token.Pos, "%s() returns both %s and %s", fn.name, fn.ret, t)
				return
			}
			if merged != fn.ret {
				fn.ret = merged
				g.inferChanged = true
			}
		}

	case *ast.FunctionStatement:
		g.fail(s.Token.Pos, "nested function definitions are not supported in compiled code")

	case *ast.BlockStatement:
		g.scanBlock(s, sc, fn)
	}
}

func (g *Generator) scanBlock(block *ast.BlockStatement, sc *scope, fn *funcSig) {
	for _, stmt := range block.Statements {
		g.scanStmt(stmt, sc, fn)
	}
}

func (g *Generator) scanExpr(expr ast.Expression, sc *scope, fn *funcSig) staticType {
	if g.err != nil {
		return typeUnknown
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return typeInt
	case *ast.FloatLiteral:
		return typeFloat
	case *ast.BooleanLiteral:
		return typeBool
	case *ast.StringLiteral:
		return typeString

	case *ast.Identifier:
		return sc.get(e.Name)

	case *ast.GroupingExpression:
		return g.scanExpr(e.Expr, sc, fn)

	case *ast.UnaryExpression:
		t := g.scanExpr(e.Operand, sc, fn)
		if e.Operator.Type == token.NOT {
			return typeBool
		}
		return t

	case *ast.BinaryExpression:
		return g.scanBinary(e, sc, fn)

	case *ast.CallExpression:
		return g.scanCall(e, sc, fn)

	case *ast.IndexExpression:
		objType := g.scanExpr(e.Object, sc, fn)
		g.scanExpr(e.Index, sc, fn)
		g.pinIdent(e.Index, typeInt, sc, fn)
		switch objType {
		case typeArray, typeString:
			// 数组元素按 i64 存取，字符串下标取字节码
			return typeInt
		}
		return typeUnknown

	case *ast.ArrayLiteral:
		for _, elem := range e.Elements {
			g.scanExpr(elem, sc, fn)
		}
		return typeArray

	case *ast.MapLiteral:
		g.fail(e.LBrace.Pos, "map literals are not supported in compiled code")
	case *ast.SetLiteral:
		g.fail(e.LBrace.Pos, "set literals are not supported in compiled code")
	case *ast.TupleLiteral:
		g.fail(e.LParen.Pos, "tuples are not supported in compiled code")
	case *ast.DotExpression:
		g.fail(e.Dot.Pos, "method calls are not supported in compiled code")
	}

	return typeUnknown
}

func (g *Generator) scanBinary(e *ast.BinaryExpression, sc *scope, fn *funcSig) staticType {
	lt := g.scanExpr(e.Left, sc, fn)
	rt := g.scanExpr(e.Right, sc, fn)

	switch e.Operator.Type {
	case token.AND, token.OR:
		return typeBool

	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		// 未定型的一侧被另一侧钉住
		if lt == typeUnknown && rt != typeUnknown {
			g.pinIdent(e.Left, rt, sc, fn)
		}
		if rt == typeUnknown && lt != typeUnknown {
			g.pinIdent(e.Right, lt, sc, fn)
		}
		return typeBool

	case token.SLASH:
		g.pinIdent(e.Left, typeFloat, sc, fn)
		g.pinIdent(e.Right, typeFloat, sc, fn)
		return typeFloat

	case token.PLUS:
		if lt == typeString || rt == typeString {
			return typeString
		}
		fallthrough
	case token.MINUS, token.STAR:
		if lt == typeFloat || rt == typeFloat {
			if lt == typeUnknown {
				g.pinIdent(e.Left, typeFloat, sc, fn)
			}
			if rt == typeUnknown {
				g.pinIdent(e.Right, typeFloat, sc, fn)
			}
			return typeFloat
		}
		if lt == typeUnknown || rt == typeUnknown {
			if lt == typeUnknown && rt == typeInt {
				g.pinIdent(e.Left, typeInt, sc, fn)
			}
			if rt == typeUnknown && lt == typeInt {
				g.pinIdent(e.Right, typeInt, sc, fn)
			}
			if lt == typeInt || rt == typeInt {
				return typeInt
			}
			return typeUnknown
		}
		return typeInt
	}

	return typeUnknown
}

func (g *Generator) scanCall(e *ast.CallExpression, sc *scope, fn *funcSig) staticType {
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		g.scanExpr(e.Callee, sc, fn)
		return typeUnknown
	}

	argTypes := make([]staticType, len(e.Arguments))
	for i, arg := range e.Arguments {
		argTypes[i] = g.scanExpr(arg, sc, fn)
	}

	if sig, exists := g.funcs[ident.Name]; exists {
		// 调用点把实参类型钉到形参上
		for i := range e.Arguments {
			if i < len(sig.params) {
				g.pinParam(sig, i, argTypes[i], e.Arguments[i].Pos())
			}
		}
		return sig.ret
	}

	switch ident.Name {
	case "print":
		return typeVoid
	case "input", "chr", "str":
		return typeString
	case "len", "ord", "int":
		return typeInt
	case "float":
		return typeFloat
	case "abs":
		if len(argTypes) == 1 && argTypes[0] == typeFloat {
			return typeFloat
		}
		return typeInt
	}
	return typeUnknown
}

// pinIdent 把一个尚未定型的标识符钉为具体类型
func (g *Generator) pinIdent(expr ast.Expression, t staticType, sc *scope, fn *funcSig) {
	if t == typeUnknown {
		return
	}
	if group, ok := expr.(*ast.GroupingExpression); ok {
		g.pinIdent(group.Expr, t, sc, fn)
		return
	}
	ident, ok := expr.(*ast.Identifier)
	if !ok {
		return
	}
	if sc.get(ident.Name) == typeUnknown {
		if _, bound := sc.types[ident.Name]; bound {
			sc.set(ident.Name, t)
		}
	}
}

// pinParam 细化一个形参的类型，不可调和时报 CompileError
func (g *Generator) pinParam(sig *funcSig, index int, t staticType, pos token.Position) {
	merged, ok := unify(sig.params[index], t)
	if !ok {
		g.fail(pos, "parameter '%s' of %s() is used as both %s and %s",
			sig.node.Params[index].Name, sig.name, sig.params[index], t)
		return
	}
	if merged != sig.params[index] {
		sig.params[index] = merged
		g.inferChanged = true
	}
}

func (g *Generator) fail(pos token.Position, format string, args ...interface{}) {
	if g.err == nil {
		g.err = errors.Newf(errors.CompileError, pos, format, args...)
	}
}
