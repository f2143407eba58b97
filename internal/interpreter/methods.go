package interpreter

import (
	"strings"

	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// 方法分派
// ============================================================================
//
// 点调用按接收者的值类型分派。方法不是一等值：x.push 只能出现
// 在调用位置，作为裸表达式求值会报 TypeError（见 evalExpr）。
//
// Array  push / pop / sort
// Map    get / set / has / remove
// Set    add / remove / has
// String split
//
// 元组不可变，没有方法。
//
// ============================================================================

func (i *Interpreter) evalMethodCall(dot *ast.DotExpression, call *ast.CallExpression, env *Environment) (Value, error) {
	receiver, err := i.evalExpr(dot.Object, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evalArgs(call.Arguments, env)
	if err != nil {
		return nil, err
	}

	name := dot.Name.Name
	pos := dot.Name.Token.Pos

	switch r := receiver.(type) {
	case *Array:
		return i.arrayMethod(r, name, args, pos)
	case *Map:
		return i.mapMethod(r, name, args, pos)
	case *Set:
		return i.setMethod(r, name, args, pos)
	case *String:
		return i.stringMethod(r, name, args, pos)
	case *Tuple:
		return nil, errors.Newf(errors.AttributeError, pos, "tuples are immutable and have no method '%s'", name)
	}

	return nil, errors.Newf(errors.TypeError, pos, "type '%s' has no methods", receiver.Type())
}

// checkArity 方法参数个数校验
func checkArity(name string, args []Value, want int, pos token.Position) error {
	if len(args) != want {
		plural := "s"
		if want == 1 {
			plural = ""
		}
		return errors.Newf(errors.TypeError, pos,
			"%s() takes exactly %d argument%s (%d given)", name, want, plural, len(args))
	}
	return nil
}

func (i *Interpreter) arrayMethod(arr *Array, name string, args []Value, pos token.Position) (Value, error) {
	switch name {
	case "push":
		if err := checkArity("push", args, 1, pos); err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, args[0])
		return None, nil

	case "pop":
		if err := checkArity("pop", args, 0, pos); err != nil {
			return nil, err
		}
		if len(arr.Elements) == 0 {
			return nil, errors.New(errors.IndexError, pos, "pop from empty list")
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil

	case "sort":
		if err := checkArity("sort", args, 0, pos); err != nil {
			return nil, err
		}
		if !sortArray(arr) {
			return nil, errors.New(errors.TypeError, pos, "sort() requires all elements to be numbers or all to be strings")
		}
		return None, nil
	}

	return nil, errors.Newf(errors.AttributeError, pos, "Array has no method '%s'%s", name, methodHint(name, []string{"push", "pop", "sort"}))
}

func (i *Interpreter) mapMethod(m *Map, name string, args []Value, pos token.Position) (Value, error) {
	switch name {
	case "get":
		if err := checkArity("get", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", args[0].Type())
		}
		if pair, exists := m.Pairs[key]; exists {
			return pair.Value, nil
		}
		return None, nil

	case "set":
		if err := checkArity("set", args, 2, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", args[0].Type())
		}
		m.Set(key, MapPair{Key: args[0], Value: args[1]})
		return None, nil

	case "has":
		if err := checkArity("has", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", args[0].Type())
		}
		_, exists := m.Pairs[key]
		return BoolOf(exists), nil

	case "remove":
		if err := checkArity("remove", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "map keys must be hashable, got %s", args[0].Type())
		}
		if !m.Delete(key) {
			return nil, errors.Newf(errors.KeyError, pos, "key not found: %s", args[0].Inspect())
		}
		return None, nil
	}

	return nil, errors.Newf(errors.AttributeError, pos, "Map has no method '%s'%s", name, methodHint(name, []string{"get", "set", "has", "remove"}))
}

func (i *Interpreter) setMethod(s *Set, name string, args []Value, pos token.Position) (Value, error) {
	switch name {
	case "add":
		if err := checkArity("add", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "set elements must be hashable, got %s", args[0].Type())
		}
		s.Add(key, args[0])
		return None, nil

	case "remove":
		if err := checkArity("remove", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "set elements must be hashable, got %s", args[0].Type())
		}
		if !s.Delete(key) {
			return nil, errors.Newf(errors.KeyError, pos, "element not found: %s", args[0].Inspect())
		}
		return None, nil

	case "has":
		if err := checkArity("has", args, 1, pos); err != nil {
			return nil, err
		}
		key, ok := HashOf(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "set elements must be hashable, got %s", args[0].Type())
		}
		_, exists := s.Elements[key]
		return BoolOf(exists), nil
	}

	return nil, errors.Newf(errors.AttributeError, pos, "Set has no method '%s'%s", name, methodHint(name, []string{"add", "remove", "has"}))
}

func (i *Interpreter) stringMethod(s *String, name string, args []Value, pos token.Position) (Value, error) {
	switch name {
	case "split":
		if err := checkArity("split", args, 1, pos); err != nil {
			return nil, err
		}
		delim, ok := args[0].(*String)
		if !ok {
			return nil, errors.Newf(errors.TypeError, pos, "split() delimiter must be a string, got %s", args[0].Type())
		}
		parts := strings.Split(s.Value, delim.Value)
		elements := make([]Value, len(parts))
		for idx, p := range parts {
			elements[idx] = &String{Value: p}
		}
		return &Array{Elements: elements}, nil
	}

	return nil, errors.Newf(errors.AttributeError, pos, "String has no method '%s'%s", name, methodHint(name, []string{"split"}))
}

// methodHint 方法名拼写建议
func methodHint(name string, known []string) string {
	if suggestion := errors.SuggestName(name, known); suggestion != "" {
		return " (did you mean '" + suggestion + "'?)"
	}
	return ""
}
