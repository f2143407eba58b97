package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// 内置函数：核心
// ============================================================================
//
// 内置函数注册在环境链的最底层帧，全局帧是它的子帧。赋值和 def
// 沿链更新已有绑定，因此对内置名赋值或 def 同名函数会改写内置帧
// 中的绑定，此后所有调用都看到新值；只有同名形参会在调用帧中遮蔽它。
//
// 内置函数没有源码位置，报错时使用无效位置，宿主按纯消息格式化。
//
// ============================================================================

// noPos 内置函数错误没有对应的源码位置
var noPos = token.Position{}

// registerBuiltins 注册全部内置函数
func registerBuiltins(env *Environment) {
	register := func(name string, fn BuiltinFunc) {
		env.Define(name, &Builtin{Name: name, Fn: fn})
	}

	register("print", builtinPrint)
	register("len", builtinLen)
	register("chr", builtinChr)
	register("ord", builtinOrd)
	register("int", builtinInt)
	register("float", builtinFloat)
	register("str", builtinStr)
	register("abs", builtinAbs)
	register("Map", builtinMap)
	register("Set", builtinSet)

	register("input", builtinInput)
	register("read_file", builtinReadFile)
	register("read_lines", builtinReadLines)
}

func builtinArity(name string, args []Value, want int) error {
	if len(args) != want {
		plural := "s"
		if want == 1 {
			plural = ""
		}
		return errors.Newf(errors.TypeError, noPos,
			"%s() takes exactly %d argument%s (%d given)", name, want, plural, len(args))
	}
	return nil
}

// builtinPrint 打印全部参数，空格分隔，末尾换行
func builtinPrint(i *Interpreter, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = arg.Inspect()
	}
	if _, err := i.stdout.Write([]byte(strings.Join(parts, " ") + "\n")); err != nil {
		return nil, errors.Newf(errors.ValueError, noPos, "print() failed: %v", err)
	}
	return None, nil
}

func builtinLen(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("len", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *String:
		return &Integer{Value: int64(len(v.Value))}, nil
	case *Array:
		return &Integer{Value: int64(len(v.Elements))}, nil
	case *Tuple:
		return &Integer{Value: int64(len(v.Elements))}, nil
	case *Map:
		return &Integer{Value: int64(len(v.Pairs))}, nil
	case *Set:
		return &Integer{Value: int64(len(v.Elements))}, nil
	}
	return nil, errors.Newf(errors.TypeError, noPos, "len() unsupported for %s", args[0].Type())
}

func builtinChr(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("chr", args, 1); err != nil {
		return nil, err
	}
	code, ok := args[0].(*Integer)
	if !ok {
		return nil, errors.Newf(errors.TypeError, noPos, "chr() requires an int, got %s", args[0].Type())
	}
	if code.Value < 0 || code.Value > 0x10FFFF {
		return nil, errors.Newf(errors.ValueError, noPos, "chr() code point %d out of range", code.Value)
	}
	return &String{Value: string(rune(code.Value))}, nil
}

func builtinOrd(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("ord", args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(*String)
	if !ok {
		return nil, errors.Newf(errors.TypeError, noPos, "ord() requires a string, got %s", args[0].Type())
	}
	runes := []rune(s.Value)
	if len(runes) != 1 {
		return nil, errors.Newf(errors.ValueError, noPos, "ord() expected a single character, got string of length %d", len(runes))
	}
	return &Integer{Value: int64(runes[0])}, nil
}

// builtinInt 字符串解析为整数，浮点数向零截断
func builtinInt(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("int", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *Integer:
		return v, nil
	case *Float:
		return &Integer{Value: int64(v.Value)}, nil
	case *Boolean:
		if v.Value {
			return &Integer{Value: 1}, nil
		}
		return &Integer{Value: 0}, nil
	case *String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ValueError, noPos, "invalid literal for int(): '%s'", v.Value)
		}
		return &Integer{Value: n}, nil
	}
	return nil, errors.Newf(errors.TypeError, noPos, "int() unsupported for %s", args[0].Type())
}

func builtinFloat(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("float", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *Float:
		return v, nil
	case *Integer:
		return &Float{Value: float64(v.Value)}, nil
	case *Boolean:
		if v.Value {
			return &Float{Value: 1}, nil
		}
		return &Float{Value: 0}, nil
	case *String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return nil, errors.Newf(errors.ValueError, noPos, "invalid literal for float(): '%s'", v.Value)
		}
		return &Float{Value: f}, nil
	}
	return nil, errors.Newf(errors.TypeError, noPos, "float() unsupported for %s", args[0].Type())
}

// builtinStr 任意值转打印形式
func builtinStr(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("str", args, 1); err != nil {
		return nil, err
	}
	return &String{Value: args[0].Inspect()}, nil
}

func builtinAbs(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("abs", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *Integer:
		if v.Value < 0 {
			return &Integer{Value: -v.Value}, nil
		}
		return v, nil
	case *Float:
		return &Float{Value: math.Abs(v.Value)}, nil
	}
	return nil, errors.Newf(errors.TypeError, noPos, "abs() requires a number, got %s", args[0].Type())
}

// builtinMap 空映射构造器，空 {} 字面量有歧义被语法器拒绝
func builtinMap(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("Map", args, 0); err != nil {
		return nil, err
	}
	return NewMap(), nil
}

// builtinSet 空集合构造器
func builtinSet(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("Set", args, 0); err != nil {
		return nil, err
	}
	return NewSet(), nil
}
