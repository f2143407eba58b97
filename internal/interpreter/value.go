package interpreter

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/culebra-lang/culebra/internal/ast"
)

// ============================================================================
// 运行时值
// ============================================================================
//
// 解释器的值采用带标签的接口表示。数值运算时 Integer 与 Float
// 按需提升；Map 的键和 Set 的元素必须可哈希（整数、浮点、布尔、
// 字符串、以及全部元素可哈希的元组）。
//
// ============================================================================

// ValueType 值的种类标签
type ValueType int

const (
	IntegerType ValueType = iota
	FloatType
	BooleanType
	StringType
	NoneType
	ArrayType
	MapType
	SetType
	TupleType
	FunctionType
	BuiltinType
)

var typeNames = map[ValueType]string{
	IntegerType:  "int",
	FloatType:    "float",
	BooleanType:  "bool",
	StringType:   "string",
	NoneType:     "None",
	ArrayType:    "array",
	MapType:      "map",
	SetType:      "set",
	TupleType:    "tuple",
	FunctionType: "function",
	BuiltinType:  "builtin",
}

func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Value 所有运行时值的接口
type Value interface {
	Type() ValueType
	// Inspect 返回值的打印形式
	Inspect() string
	// Truthy 返回值在条件上下文中的真假
	Truthy() bool
}

// ============================================================================
// 标量
// ============================================================================

// Integer 64 位有符号整数
type Integer struct {
	Value int64
}

func (v *Integer) Type() ValueType { return IntegerType }
func (v *Integer) Inspect() string { return strconv.FormatInt(v.Value, 10) }
func (v *Integer) Truthy() bool    { return v.Value != 0 }

// Float 64 位浮点数
type Float struct {
	Value float64
}

func (v *Float) Type() ValueType { return FloatType }

// Inspect 整数值的浮点数打印时保留 ".0"，与整数的打印形式区分
func (v *Float) Inspect() string {
	s := strconv.FormatFloat(v.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}
func (v *Float) Truthy() bool { return v.Value != 0 }

// Boolean 布尔值
type Boolean struct {
	Value bool
}

func (v *Boolean) Type() ValueType { return BooleanType }
func (v *Boolean) Inspect() string {
	if v.Value {
		return "true"
	}
	return "false"
}
func (v *Boolean) Truthy() bool { return v.Value }

// 共享的单例，避免重复分配
var (
	True  = &Boolean{Value: true}
	False = &Boolean{Value: false}
	None  = &NoneValue{}
)

// BoolOf 返回共享的布尔单例
func BoolOf(b bool) *Boolean {
	if b {
		return True
	}
	return False
}

// String 不可变字符串
type String struct {
	Value string
}

func (v *String) Type() ValueType { return StringType }
func (v *String) Inspect() string { return v.Value }
func (v *String) Truthy() bool    { return len(v.Value) > 0 }

// quote 集合内部打印字符串时加引号
func (v *String) quote() string { return "\"" + v.Value + "\"" }

// NoneValue 空值
type NoneValue struct{}

func (v *NoneValue) Type() ValueType { return NoneType }
func (v *NoneValue) Inspect() string { return "None" }
func (v *NoneValue) Truthy() bool    { return false }

// ============================================================================
// 集合
// ============================================================================

// Array 可变数组
type Array struct {
	Elements []Value
}

func (v *Array) Type() ValueType { return ArrayType }
func (v *Array) Inspect() string {
	var parts []string
	for _, e := range v.Elements {
		parts = append(parts, inspectNested(e))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (v *Array) Truthy() bool { return len(v.Elements) > 0 }

// HashKey 可哈希值的规范键
//
// 数值上相等的 Integer 和 Float 必须得到相同的键（1 == 1.0），
// 因此整数值的浮点数归一化为整数键。布尔与整数不互通。
type HashKey struct {
	Kind     ValueType
	IntVal   int64
	FloatVal float64
	StrVal   string
}

// MapPair 保留原始键，供遍历和打印使用
type MapPair struct {
	Key   Value
	Value Value
}

// Map 哈希映射，保留插入顺序用于打印
type Map struct {
	Pairs map[HashKey]MapPair
	order []HashKey
}

// NewMap 创建空映射
func NewMap() *Map {
	return &Map{Pairs: make(map[HashKey]MapPair)}
}

func (v *Map) Type() ValueType { return MapType }
func (v *Map) Inspect() string {
	var parts []string
	for _, k := range v.order {
		pair, ok := v.Pairs[k]
		if !ok {
			continue
		}
		parts = append(parts, inspectNested(pair.Key)+": "+inspectNested(pair.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (v *Map) Truthy() bool { return len(v.Pairs) > 0 }

// Set 插入键值对，已存在时更新
func (v *Map) Set(key HashKey, pair MapPair) {
	if _, exists := v.Pairs[key]; !exists {
		v.order = append(v.order, key)
	}
	v.Pairs[key] = pair
}

// Delete 删除键，返回是否存在
func (v *Map) Delete(key HashKey) bool {
	if _, exists := v.Pairs[key]; !exists {
		return false
	}
	delete(v.Pairs, key)
	for i, k := range v.order {
		if k == key {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true
}

// Set 去重集合，保留插入顺序用于打印
type Set struct {
	Elements map[HashKey]Value
	order    []HashKey
}

// NewSet 创建空集合
func NewSet() *Set {
	return &Set{Elements: make(map[HashKey]Value)}
}

func (v *Set) Type() ValueType { return SetType }
func (v *Set) Inspect() string {
	var parts []string
	for _, k := range v.order {
		elem, ok := v.Elements[k]
		if !ok {
			continue
		}
		parts = append(parts, inspectNested(elem))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (v *Set) Truthy() bool { return len(v.Elements) > 0 }

// Add 加入元素，已存在时不变
func (v *Set) Add(key HashKey, elem Value) {
	if _, exists := v.Elements[key]; exists {
		return
	}
	v.Elements[key] = elem
	v.order = append(v.order, key)
}

// Delete 删除元素，返回是否存在
func (v *Set) Delete(key HashKey) bool {
	if _, exists := v.Elements[key]; !exists {
		return false
	}
	delete(v.Elements, key)
	for i, k := range v.order {
		if k == key {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true
}

// Tuple 不可变有序序列，至少两个元素
type Tuple struct {
	Elements []Value
}

func (v *Tuple) Type() ValueType { return TupleType }
func (v *Tuple) Inspect() string {
	var parts []string
	for _, e := range v.Elements {
		parts = append(parts, inspectNested(e))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (v *Tuple) Truthy() bool { return len(v.Elements) > 0 }

// inspectNested 集合内部的元素打印形式，字符串带引号
func inspectNested(v Value) string {
	if s, ok := v.(*String); ok {
		return s.quote()
	}
	return v.Inspect()
}

// ============================================================================
// 可调用值
// ============================================================================

// Function 用户定义函数，捕获定义时的环境
type Function struct {
	Name    string
	Params  []*ast.Identifier
	Body    *ast.BlockStatement
	Closure *Environment
}

func (v *Function) Type() ValueType { return FunctionType }
func (v *Function) Inspect() string { return "<function " + v.Name + ">" }
func (v *Function) Truthy() bool    { return true }

// BuiltinFunc 内置函数的原生实现
//
// 参数校验由各实现自行负责，出错时返回 *errors.Diagnostic。
type BuiltinFunc func(i *Interpreter, args []Value) (Value, error)

// Builtin 内置函数
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

func (v *Builtin) Type() ValueType { return BuiltinType }
func (v *Builtin) Inspect() string { return "<builtin " + v.Name + ">" }
func (v *Builtin) Truthy() bool    { return true }

// ============================================================================
// 哈希与相等
// ============================================================================

// Hashable 判断值是否可以作为 Map 键 / Set 元素
func Hashable(v Value) bool {
	switch val := v.(type) {
	case *Integer, *Float, *Boolean, *String:
		return true
	case *Tuple:
		for _, e := range val.Elements {
			if !Hashable(e) {
				return false
			}
		}
		return true
	}
	return false
}

// HashOf 计算可哈希值的规范键
//
// 不可哈希的值返回 ok=false，调用方据此报错，无需先调用 Hashable。
func HashOf(v Value) (HashKey, bool) {
	switch val := v.(type) {
	case *Integer:
		return HashKey{Kind: IntegerType, IntVal: val.Value}, true
	case *Float:
		// 整数值的浮点数与对应整数相等，键也必须一致
		if val.Value == float64(int64(val.Value)) {
			return HashKey{Kind: IntegerType, IntVal: int64(val.Value)}, true
		}
		return HashKey{Kind: FloatType, FloatVal: val.Value}, true
	case *Boolean:
		iv := int64(0)
		if val.Value {
			iv = 1
		}
		return HashKey{Kind: BooleanType, IntVal: iv}, true
	case *String:
		return HashKey{Kind: StringType, StrVal: val.Value}, true
	case *Tuple:
		h := fnv.New64a()
		for _, e := range val.Elements {
			key, ok := HashOf(e)
			if !ok {
				return HashKey{}, false
			}
			h.Write([]byte{byte(key.Kind)})
			h.Write([]byte(strconv.FormatInt(key.IntVal, 10)))
			h.Write([]byte(strconv.FormatFloat(key.FloatVal, 'b', -1, 64)))
			h.Write([]byte(key.StrVal))
			h.Write([]byte{0})
		}
		return HashKey{Kind: TupleType, IntVal: int64(h.Sum64())}, true
	}
	return HashKey{}, false
}

// Equals 结构化相等
//
// Integer 与 Float 数值相等即相等；Map/Set 的相等与插入顺序无关。
func Equals(a, b Value) bool {
	switch av := a.(type) {
	case *Integer:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == float64(bv.Value)
		case *Float:
			return av.Value == bv.Value
		}
		return false
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *NoneValue:
		_, ok := b.(*NoneValue)
		return ok
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Tuple:
		bv, ok := b.(*Tuple)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || len(av.Pairs) != len(bv.Pairs) {
			return false
		}
		for k, pair := range av.Pairs {
			other, exists := bv.Pairs[k]
			if !exists || !Equals(pair.Value, other.Value) {
				return false
			}
		}
		return true
	case *Set:
		bv, ok := b.(*Set)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for k := range av.Elements {
			if _, exists := bv.Elements[k]; !exists {
				return false
			}
		}
		return true
	}
	return a == b
}

// sortArray 原地升序排序
//
// 元素必须全为数值或全为字符串，否则返回 false，由调用方报错。
func sortArray(arr *Array) bool {
	if len(arr.Elements) == 0 {
		return true
	}

	allNumeric := true
	allString := true
	for _, e := range arr.Elements {
		switch e.Type() {
		case IntegerType, FloatType:
			allString = false
		case StringType:
			allNumeric = false
		default:
			allNumeric = false
			allString = false
		}
	}

	switch {
	case allNumeric:
		sort.SliceStable(arr.Elements, func(i, j int) bool {
			return numericOf(arr.Elements[i]) < numericOf(arr.Elements[j])
		})
	case allString:
		sort.SliceStable(arr.Elements, func(i, j int) bool {
			return arr.Elements[i].(*String).Value < arr.Elements[j].(*String).Value
		})
	default:
		return false
	}
	return true
}

func numericOf(v Value) float64 {
	switch val := v.(type) {
	case *Integer:
		return float64(val.Value)
	case *Float:
		return val.Value
	}
	return 0
}
