package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// 树遍历求值器
// ============================================================================
//
// 对 AST 直接求值。表达式求值严格从左到右；and / or 短路并返回
// 决定结果的那个操作数本身。return 通过控制流信号沿调用栈向上
// 传递，只有函数调用边界会捕获它。
//
// 运行时错误以 *errors.Diagnostic 的形式返回给宿主，携带源码
// 位置；语言层没有异常机制，错误不可恢复。
//
// ============================================================================

// Interpreter 解释器实例
//
// stdout / stdin 可替换，测试时注入缓冲。
type Interpreter struct {
	globals *Environment
	stdout  io.Writer
	stdin   *bufio.Reader
}

// returnSignal return 语句的控制流信号，不是错误
type returnSignal struct {
	value Value
	pos   token.Position
}

func (r *returnSignal) Error() string { return "'return' outside function" }

// New 创建解释器，内置函数注册在最底层帧
func New() *Interpreter {
	i := &Interpreter{
		stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
	}

	builtins := NewEnvironment()
	registerBuiltins(builtins)
	i.globals = builtins.NewChild()

	return i
}

// SetStdout 重定向输出
func (i *Interpreter) SetStdout(w io.Writer) {
	i.stdout = w
}

// SetStdin 重定向输入
func (i *Interpreter) SetStdin(r io.Reader) {
	i.stdin = bufio.NewReader(r)
}

// Globals 返回全局环境，REPL 跨行保留状态时使用
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// Evaluate 按顺序执行全部顶层语句
func (i *Interpreter) Evaluate(program *ast.Program) error {
	for _, stmt := range program.Statements {
		if err := i.execStmt(stmt, i.globals); err != nil {
			if sig, ok := err.(*returnSignal); ok {
				return errors.New(errors.SyntaxError, sig.pos, "'return' outside function")
			}
			return err
		}
	}
	return nil
}

// EvaluateExpr 求值单个表达式，REPL 打印结果时使用
func (i *Interpreter) EvaluateExpr(expr ast.Expression) (Value, error) {
	return i.evalExpr(expr, i.globals)
}

// ============================================================================
// 语句执行
// ============================================================================

func (i *Interpreter) execStmt(stmt ast.Statement, env *Environment) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := i.evalExpr(s.Expr, env)
		return err

	case *ast.AssignStatement:
		return i.execAssign(s, env)

	case *ast.BlockStatement:
		return i.execBlock(s, env)

	case *ast.IfStatement:
		return i.execIf(s, env)

	case *ast.WhileStatement:
		return i.execWhile(s, env)

	case *ast.ForStatement:
		return i.execFor(s, env)

	case *ast.FunctionStatement:
		fn := &Function{
			Name:    s.Name.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: env,
		}
		env.Assign(s.Name.Name, fn)
		return nil

	case *ast.ReturnStatement:
		var value Value = None
		if s.Value != nil {
			v, err := i.evalExpr(s.Value, env)
			if err != nil {
				return err
			}
			value = v
		}
		return &returnSignal{value: value, pos: s.Token.Pos}

	default:
		return errors.Newf(errors.TypeError, stmt.Pos(), "unexpected statement node %T", stmt)
	}
}

func (i *Interpreter) execBlock(block *ast.BlockStatement, env *Environment) error {
	for _, stmt := range block.Statements {
		if err := i.execStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execAssign(s *ast.AssignStatement, env *Environment) error {
	value, err := i.evalExpr(s.Value, env)
	if err != nil {
		return err
	}

	switch target := s.Target.(type) {
	case *ast.Identifier:
		env.Assign(target.Name, value)
		return nil

	case *ast.IndexExpression:
		container, err := i.evalExpr(target.Object, env)
		if err != nil {
			return err
		}
		index, err := i.evalExpr(target.Index, env)
		if err != nil {
			return err
		}
		return i.assignIndex(container, index, value, target.LBracket.Pos)

	default:
		return errors.New(errors.SyntaxError, s.Target.Pos(), "invalid assignment target")
	}
}

// assignIndex 下标赋值只支持数组和映射
func (i *Interpreter) assignIndex(container, index, value Value, pos token.Position) error {
	switch c := container.(type) {
	case *Array:
		idx, ok := index.(*Integer)
		if !ok {
			return errors.Newf(errors.TypeError, pos, "array index must be an integer, got %s", index.Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(c.Elements)) {
			return errors.Newf(errors.IndexError, pos, "index %d out of range for array of length %d", idx.Value, len(c.Elements))
		}
		c.Elements[idx.Value] = value
		return nil

	case *Map:
		key, ok := HashOf(index)
		if !ok {
			return errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", index.Type())
		}
		c.Set(key, MapPair{Key: index, Value: value})
		return nil

	default:
		return errors.Newf(errors.TypeError, pos, "index assignment only supports array and map, got %s", container.Type())
	}
}

func (i *Interpreter) execIf(s *ast.IfStatement, env *Environment) error {
	cond, err := i.evalExpr(s.Condition, env)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return i.execBlock(s.Body, env)
	}

	for _, elif := range s.Elifs {
		cond, err := i.evalExpr(elif.Condition, env)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return i.execBlock(elif.Body, env)
		}
	}

	if s.Else != nil {
		return i.execBlock(s.Else, env)
	}
	return nil
}

func (i *Interpreter) execWhile(s *ast.WhileStatement, env *Environment) error {
	for {
		cond, err := i.evalExpr(s.Condition, env)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		if err := i.execBlock(s.Body, env); err != nil {
			return err
		}
	}
}

// execFor 三段式循环：INIT 一次，然后 COND / 体 / STEP 循环
func (i *Interpreter) execFor(s *ast.ForStatement, env *Environment) error {
	if err := i.execStmt(s.Init, env); err != nil {
		return err
	}
	for {
		cond, err := i.evalExpr(s.Condition, env)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		if err := i.execBlock(s.Body, env); err != nil {
			return err
		}
		if err := i.execStmt(s.Step, env); err != nil {
			return err
		}
	}
}

// ============================================================================
// 表达式求值
// ============================================================================

func (i *Interpreter) evalExpr(expr ast.Expression, env *Environment) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return &Integer{Value: e.Value}, nil

	case *ast.FloatLiteral:
		return &Float{Value: e.Value}, nil

	case *ast.StringLiteral:
		return &String{Value: e.Value}, nil

	case *ast.BooleanLiteral:
		return BoolOf(e.Value), nil

	case *ast.Identifier:
		value, ok := env.Get(e.Name)
		if !ok {
			msg := fmt.Sprintf("undefined variable '%s'", e.Name)
			if suggestion := errors.SuggestName(e.Name, env.Names()); suggestion != "" {
				msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
			}
			return nil, errors.New(errors.NameError, e.Token.Pos, msg)
		}
		return value, nil

	case *ast.GroupingExpression:
		return i.evalExpr(e.Expr, env)

	case *ast.UnaryExpression:
		return i.evalUnary(e, env)

	case *ast.BinaryExpression:
		return i.evalBinary(e, env)

	case *ast.ArrayLiteral:
		elements := make([]Value, 0, len(e.Elements))
		for _, elem := range e.Elements {
			v, err := i.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			elements = append(elements, v)
		}
		return &Array{Elements: elements}, nil

	case *ast.MapLiteral:
		m := NewMap()
		for idx := range e.Keys {
			key, err := i.evalExpr(e.Keys[idx], env)
			if err != nil {
				return nil, err
			}
			value, err := i.evalExpr(e.Values[idx], env)
			if err != nil {
				return nil, err
			}
			hk, ok := HashOf(key)
			if !ok {
				return nil, errors.Newf(errors.TypeError, e.Keys[idx].Pos(), "map keys must be hashable, got %s", key.Type())
			}
			m.Set(hk, MapPair{Key: key, Value: value})
		}
		return m, nil

	case *ast.SetLiteral:
		set := NewSet()
		for _, elem := range e.Elements {
			v, err := i.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			hk, ok := HashOf(v)
			if !ok {
				return nil, errors.Newf(errors.TypeError, elem.Pos(), "set elements must be hashable, got %s", v.Type())
			}
			set.Add(hk, v)
		}
		return set, nil

	case *ast.TupleLiteral:
		elements := make([]Value, 0, len(e.Elements))
		for _, elem := range e.Elements {
			v, err := i.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			elements = append(elements, v)
		}
		return &Tuple{Elements: elements}, nil

	case *ast.IndexExpression:
		return i.evalIndex(e, env)

	case *ast.DotExpression:
		// 方法引用只在调用位置有意义
		return nil, errors.Newf(errors.TypeError, e.Dot.Pos, "method reference '%s' must be called", e.Name.Name)

	case *ast.CallExpression:
		return i.evalCall(e, env)

	default:
		return nil, errors.Newf(errors.TypeError, expr.Pos(), "unexpected expression node %T", expr)
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpression, env *Environment) (Value, error) {
	operand, err := i.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case token.MINUS:
		switch v := operand.(type) {
		case *Integer:
			return &Integer{Value: -v.Value}, nil
		case *Float:
			return &Float{Value: -v.Value}, nil
		}
		return nil, errors.Newf(errors.TypeError, e.Operator.Pos, "unary '-' requires a number, got %s", operand.Type())

	case token.NOT:
		return BoolOf(!operand.Truthy()), nil
	}

	return nil, errors.Newf(errors.TypeError, e.Operator.Pos, "unexpected unary operator '%s'", e.Operator.Literal)
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpression, env *Environment) (Value, error) {
	// and / or 先求左侧，短路时右侧不求值
	if e.Operator.Type == token.AND || e.Operator.Type == token.OR {
		left, err := i.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == token.AND {
			if !left.Truthy() {
				return left, nil
			}
		} else {
			if left.Truthy() {
				return left, nil
			}
		}
		return i.evalExpr(e.Right, env)
	}

	left, err := i.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	return i.applyBinary(e.Operator, left, right)
}

func (i *Interpreter) applyBinary(op token.Token, left, right Value) (Value, error) {
	switch op.Type {
	case token.PLUS:
		if ls, ok := left.(*String); ok {
			if rs, ok := right.(*String); ok {
				return &String{Value: ls.Value + rs.Value}, nil
			}
		}
		return i.applyArith(op, left, right)

	case token.MINUS, token.STAR, token.SLASH:
		return i.applyArith(op, left, right)

	case token.EQ:
		return BoolOf(Equals(left, right)), nil

	case token.NE:
		return BoolOf(!Equals(left, right)), nil

	case token.LT, token.LE, token.GT, token.GE:
		return i.applyCompare(op, left, right)
	}

	return nil, errors.Newf(errors.TypeError, op.Pos, "unexpected binary operator '%s'", op.Literal)
}

// applyArith 数值运算：int op int 得 int，混合时提升为 float，
// 除法恒为 float
func (i *Interpreter) applyArith(op token.Token, left, right Value) (Value, error) {
	li, lIsInt := left.(*Integer)
	lf, lIsFloat := left.(*Float)
	ri, rIsInt := right.(*Integer)
	rf, rIsFloat := right.(*Float)

	if (!lIsInt && !lIsFloat) || (!rIsInt && !rIsFloat) {
		return nil, errors.Newf(errors.TypeError, op.Pos,
			"unsupported operand types for '%s': %s and %s", op.Literal, left.Type(), right.Type())
	}

	if op.Type == token.SLASH {
		var lv, rv float64
		if lIsInt {
			lv = float64(li.Value)
		} else {
			lv = lf.Value
		}
		if rIsInt {
			rv = float64(ri.Value)
		} else {
			rv = rf.Value
		}
		if rv == 0 {
			return nil, errors.New(errors.ValueError, op.Pos, "division by zero")
		}
		return &Float{Value: lv / rv}, nil
	}

	if lIsInt && rIsInt {
		switch op.Type {
		case token.PLUS:
			return &Integer{Value: li.Value + ri.Value}, nil
		case token.MINUS:
			return &Integer{Value: li.Value - ri.Value}, nil
		case token.STAR:
			return &Integer{Value: li.Value * ri.Value}, nil
		}
	}

	var lv, rv float64
	if lIsInt {
		lv = float64(li.Value)
	} else {
		lv = lf.Value
	}
	if rIsInt {
		rv = float64(ri.Value)
	} else {
		rv = rf.Value
	}
	switch op.Type {
	case token.PLUS:
		return &Float{Value: lv + rv}, nil
	case token.MINUS:
		return &Float{Value: lv - rv}, nil
	case token.STAR:
		return &Float{Value: lv * rv}, nil
	}

	return nil, errors.Newf(errors.TypeError, op.Pos, "unexpected arithmetic operator '%s'", op.Literal)
}

// applyCompare 大小比较：数值按提升比较，字符串按字节序
func (i *Interpreter) applyCompare(op token.Token, left, right Value) (Value, error) {
	if ls, ok := left.(*String); ok {
		if rs, ok := right.(*String); ok {
			switch op.Type {
			case token.LT:
				return BoolOf(ls.Value < rs.Value), nil
			case token.LE:
				return BoolOf(ls.Value <= rs.Value), nil
			case token.GT:
				return BoolOf(ls.Value > rs.Value), nil
			case token.GE:
				return BoolOf(ls.Value >= rs.Value), nil
			}
		}
	}

	lNum, lOK := asNumber(left)
	rNum, rOK := asNumber(right)
	if !lOK || !rOK {
		return nil, errors.Newf(errors.TypeError, op.Pos,
			"unsupported operand types for '%s': %s and %s", op.Literal, left.Type(), right.Type())
	}

	switch op.Type {
	case token.LT:
		return BoolOf(lNum < rNum), nil
	case token.LE:
		return BoolOf(lNum <= rNum), nil
	case token.GT:
		return BoolOf(lNum > rNum), nil
	case token.GE:
		return BoolOf(lNum >= rNum), nil
	}

	return nil, errors.Newf(errors.TypeError, op.Pos, "unexpected comparison operator '%s'", op.Literal)
}

func asNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case *Integer:
		return float64(val.Value), true
	case *Float:
		return val.Value, true
	}
	return 0, false
}

// evalIndex 下标读取：数组 / 元组 / 字符串按整数索引，映射按键
func (i *Interpreter) evalIndex(e *ast.IndexExpression, env *Environment) (Value, error) {
	target, err := i.evalExpr(e.Object, env)
	if err != nil {
		return nil, err
	}
	index, err := i.evalExpr(e.Index, env)
	if err != nil {
		return nil, err
	}

	pos := e.LBracket.Pos

	switch t := target.(type) {
	case *Map:
		key, ok := HashOf(index)
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", index.Type())
		}
		pair, exists := t.Pairs[key]
		if !exists {
			return nil, errors.Newf(errors.KeyError, pos, "key not found: %s", index.Inspect())
		}
		return pair.Value, nil

	case *Array:
		return indexSequence(t.Elements, index, "array", pos)

	case *Tuple:
		return indexSequence(t.Elements, index, "tuple", pos)

	case *String:
		idx, ok := index.(*Integer)
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "string index must be an integer, got %s", index.Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(t.Value)) {
			return nil, errors.Newf(errors.IndexError, pos, "index %d out of range for string of length %d", idx.Value, len(t.Value))
		}
		return &String{Value: string(t.Value[idx.Value])}, nil
	}

	return nil, errors.Newf(errors.TypeError, pos, "indexing not supported on %s", target.Type())
}

func indexSequence(elements []Value, index Value, kind string, pos token.Position) (Value, error) {
	idx, ok := index.(*Integer)
	if !ok {
		return nil, errors.Newf(errors.TypeError, pos, "%s index must be an integer, got %s", kind, index.Type())
	}
	if idx.Value < 0 || idx.Value >= int64(len(elements)) {
		return nil, errors.Newf(errors.IndexError, pos, "index %d out of range for %s of length %d", idx.Value, kind, len(elements))
	}
	return elements[idx.Value], nil
}

// evalCall 调用：被调者是方法引用时走方法分派，否则按值调用
func (i *Interpreter) evalCall(e *ast.CallExpression, env *Environment) (Value, error) {
	if dot, ok := e.Callee.(*ast.DotExpression); ok {
		return i.evalMethodCall(dot, e, env)
	}

	callee, err := i.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}

	args, err := i.evalArgs(e.Arguments, env)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case *Function:
		return i.callFunction(fn, args, e.LParen.Pos)
	case *Builtin:
		return fn.Fn(i, args)
	}

	return nil, errors.Newf(errors.TypeError, e.Callee.Pos(), "%s is not callable", callee.Type())
}

func (i *Interpreter) evalArgs(exprs []ast.Expression, env *Environment) ([]Value, error) {
	args := make([]Value, 0, len(exprs))
	for _, expr := range exprs {
		v, err := i.evalExpr(expr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// callFunction 压入以闭包环境为父的新帧，绑定参数并执行函数体
func (i *Interpreter) callFunction(fn *Function, args []Value, pos token.Position) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, errors.Newf(errors.TypeError, pos,
			"%s() takes %d arguments (%d given)", fn.Name, len(fn.Params), len(args))
	}

	frame := fn.Closure.NewChild()
	for idx, param := range fn.Params {
		frame.Define(param.Name, args[idx])
	}

	err := i.execBlock(fn.Body, frame)
	if err != nil {
		if sig, ok := err.(*returnSignal); ok {
			return sig.value, nil
		}
		return nil, err
	}
	return None, nil
}
