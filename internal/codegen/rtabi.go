package codegen

// ============================================================================
// 运行时 ABI
// ============================================================================
//
// 生成的 IR 链接 runtime/runtime.c。这里的符号名和签名必须与
// runtime.h 的声明一致。%array 对应 C 侧的 { int64_t length;
// char* data }，越界访问由运行时写 stderr 并 exit(1)。
//
// ============================================================================

// 运行时函数名
const (
	fnPrintInt    = "culebra_print_int"
	fnPrintFloat  = "culebra_print_float"
	fnPrintString = "culebra_print_string"
	fnPrintBool   = "culebra_print_bool"
	fnPrintMulti  = "culebra_print_multi"
	fnInput       = "culebra_input"
	fnLen         = "culebra_len"
	fnLenArray    = "culebra_len_array"
	fnChr         = "culebra_chr"
	fnOrd         = "culebra_ord"
	fnStrConcat   = "culebra_str_concat"
	fnIntToStr    = "culebra_int_to_str"
	fnFloatToStr  = "culebra_float_to_str"
	fnBoolToStr   = "culebra_bool_to_str"
	fnCreateArray = "culebra_create_array"
	fnFreeArray   = "culebra_free_array"
	fnArrayGet    = "culebra_array_get"
	fnArraySet    = "culebra_array_set"
)

// runtimeDecl 一条 declare
type runtimeDecl struct {
	Name     string
	Ret      string
	Params   []string
	Variadic bool
}

// runtimeDecls 模块头部声明的全部运行时符号
func runtimeDecls() []runtimeDecl {
	return []runtimeDecl{
		{Name: fnPrintInt, Ret: "void", Params: []string{"i64"}},
		{Name: fnPrintFloat, Ret: "void", Params: []string{"double"}},
		{Name: fnPrintString, Ret: "void", Params: []string{"i8*"}},
		{Name: fnPrintBool, Ret: "void", Params: []string{"i1"}},
		{Name: fnPrintMulti, Ret: "void", Params: []string{"i32"}, Variadic: true},
		{Name: fnInput, Ret: "i8*", Params: []string{"i8*"}},
		{Name: fnLen, Ret: "i64", Params: []string{"i8*"}},
		{Name: fnLenArray, Ret: "i64", Params: []string{"%array*"}},
		{Name: fnChr, Ret: "i8*", Params: []string{"i64"}},
		{Name: fnOrd, Ret: "i64", Params: []string{"i8*"}},
		{Name: fnStrConcat, Ret: "i8*", Params: []string{"i8*", "i8*"}},
		{Name: fnIntToStr, Ret: "i8*", Params: []string{"i64"}},
		{Name: fnFloatToStr, Ret: "i8*", Params: []string{"double"}},
		{Name: fnBoolToStr, Ret: "i8*", Params: []string{"i1"}},
		{Name: fnCreateArray, Ret: "%array*", Params: []string{"i64", "i64"}},
		{Name: fnFreeArray, Ret: "void", Params: []string{"%array*"}},
		{Name: fnArrayGet, Ret: "i8*", Params: []string{"%array*", "i64"}},
		{Name: fnArraySet, Ret: "void", Params: []string{"%array*", "i64", "i64"}},
		// llvm.fabs 用于 abs() 的浮点路径
		{Name: "llvm.fabs.f64", Ret: "double", Params: []string{"double"}},
	}
}
