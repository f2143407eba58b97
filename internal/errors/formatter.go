package errors

import (
	"fmt"
	"strings"

	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// 诊断
// ============================================================================

// Diagnostic 一条诊断信息
//
// 词法器和语法器可以累积多条诊断；解释器和代码生成器在第一条处停止。
type Diagnostic struct {
	Kind    Kind           // 错误种类
	Pos     token.Position // 错误位置（可能无效，如纯消息错误）
	Message string         // 主消息
}

// Error 实现 error 接口
//
// 用户可见格式固定为 "<Kind> at line <L>, col <C>: <message>"。
func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s at line %d, col %d: %s", d.Kind, d.Pos.Line, d.Pos.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// New 创建一条诊断
func New(kind Kind, pos token.Position, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: message}
}

// Newf 创建一条带格式化消息的诊断
func Newf(kind Kind, pos token.Position, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 诊断格式化器
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     true,
		ShowSource: true,
		TabWidth:   4,
	}
}

// Format 格式化一条诊断
//
// 输出形如：
//
//	SyntaxError at line 5, col 11: unexpected token ')'
//	 --> file.cb:5:11
//	  |
//	5 | print(1 + )
//	              ^
func (f *Formatter) Format(d *Diagnostic, sourceLines []string) string {
	var sb strings.Builder

	// 错误头: SyntaxError at line 5, col 12: ...
	head := d.Error()
	if f.Colors {
		head = Colorize(d.Kind.String(), ColorBoldRed) + strings.TrimPrefix(head, d.Kind.String())
	}
	sb.WriteString(head)
	sb.WriteString("\n")

	if !d.Pos.IsValid() {
		return sb.String()
	}

	// 位置: --> file.cb:5:12
	if d.Pos.Filename != "" {
		arrow := f.colorize("-->", ColorCyan)
		location := f.colorize(d.Pos.String(), ColorCyan)
		sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, location))
	}

	// 显示源代码行与脱字符标注
	if f.ShowSource && d.Pos.Line > 0 && d.Pos.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceLine(sourceLines[d.Pos.Line-1], d.Pos.Line, d.Pos.Column))
	}

	return sb.String()
}

// formatSourceLine 格式化单行源代码及其标注
func (f *Formatter) formatSourceLine(line string, lineNum, col int) string {
	var sb strings.Builder

	lineNumWidth := len(fmt.Sprintf("%d", lineNum))

	separator := f.colorize(strings.Repeat(" ", lineNumWidth)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	numStr := f.colorize(fmt.Sprintf("%*d", lineNumWidth, lineNum), ColorBlue)
	pipe := f.colorize(" |", ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", numStr, pipe, f.expandTabs(line)))

	actualCol := f.calculateActualColumn(line, col)
	underline := strings.Repeat(" ", lineNumWidth+3+actualCol-1) + f.colorize("^", ColorRed)
	sb.WriteString(underline + "\n")

	return sb.String()
}

// expandTabs 将 Tab 展开为空格
func (f *Formatter) expandTabs(line string) string {
	return strings.ReplaceAll(line, "\t", strings.Repeat(" ", f.TabWidth))
}

// calculateActualColumn 计算 Tab 展开后的实际列号
func (f *Formatter) calculateActualColumn(line string, col int) int {
	if col < 1 {
		return 1
	}
	actual := 0
	for i, ch := range line {
		if i >= col-1 {
			break
		}
		if ch == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual + 1
}

// colorize 条件着色
func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}
