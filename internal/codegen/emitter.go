package codegen

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// IR 文本输出
// ============================================================================

// emitter 累积 LLVM IR 文本行
type emitter struct {
	lines []string
	tmp   int
	label int
}

// emit 写一行（无缩进）
func (e *emitter) emit(format string, args ...interface{}) {
	e.lines = append(e.lines, fmt.Sprintf(format, args...))
}

// emitInst 写一条带缩进的指令
func (e *emitter) emitInst(format string, args ...interface{}) {
	e.lines = append(e.lines, "  "+fmt.Sprintf(format, args...))
}

// emitBlank 写空行
func (e *emitter) emitBlank() {
	e.lines = append(e.lines, "")
}

// nextTmp 下一个临时寄存器 %t1, %t2, ...
func (e *emitter) nextTmp() string {
	e.tmp++
	return fmt.Sprintf("%%t%d", e.tmp)
}

// nextLabel 下一个基本块标签，带用途前缀
func (e *emitter) nextLabel(prefix string) string {
	e.label++
	return fmt.Sprintf("%s%d", prefix, e.label)
}

// String 拼接完整模块文本
func (e *emitter) String() string {
	return strings.Join(e.lines, "\n") + "\n"
}

// formatFloat 浮点常量用十六进制位形式，避免十进制往返误差
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "0x7FF0000000000000"
	}
	if math.IsInf(f, -1) {
		return "0xFFF0000000000000"
	}
	if math.IsNaN(f) {
		return "0x7FF8000000000000"
	}
	return fmt.Sprintf("0x%016X", math.Float64bits(f))
}

// escapeString LLVM 字符串常量转义，非打印字符逐字节 \HH
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}
