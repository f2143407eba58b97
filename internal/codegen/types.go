package codegen

// ============================================================================
// 静态类型
// ============================================================================
//
// AOT 后端是单态化的：每个表达式在编译期定型为一个具体的 LLVM
// 类型。解释器的动态值表示在这里不存在，无法静态定型的程序只能
// 解释执行。
//
// 布尔在寄存器中是 i1，落栈时加宽为 i8。
//
// ============================================================================

// staticType 编译期类型
type staticType int

const (
	typeUnknown staticType = iota
	typeInt                // i64
	typeFloat              // double
	typeBool               // i1（存储为 i8）
	typeString             // i8*，NUL 结尾
	typeArray              // %array*，元素按 8 字节 i64 存取
	typeVoid               // 无返回值
)

var staticTypeNames = map[staticType]string{
	typeUnknown: "unknown",
	typeInt:     "int",
	typeFloat:   "float",
	typeBool:    "bool",
	typeString:  "string",
	typeArray:   "array",
	typeVoid:    "void",
}

func (t staticType) String() string {
	if name, ok := staticTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// llvmType 寄存器中的 LLVM 类型
func llvmType(t staticType) string {
	switch t {
	case typeInt:
		return "i64"
	case typeFloat:
		return "double"
	case typeBool:
		return "i1"
	case typeString:
		return "i8*"
	case typeArray:
		return "%array*"
	case typeVoid:
		return "void"
	}
	return "i64"
}

// storageType 栈槽中的 LLVM 类型，i1 加宽为 i8
func storageType(t staticType) string {
	if t == typeBool {
		return "i8"
	}
	return llvmType(t)
}

// numeric 是否参与算术提升
func numeric(t staticType) bool {
	return t == typeInt || t == typeFloat
}

// unify 合并两次观察到的类型
//
// Unknown 被任何具体类型细化；已定型后出现不同的具体类型则不可
// 调和，返回 ok=false。
func unify(a, b staticType) (staticType, bool) {
	if a == typeUnknown {
		return b, true
	}
	if b == typeUnknown || a == b {
		return a, true
	}
	return a, false
}
