// repl.go - Culebra REPL (Read-Eval-Print Loop)
//
// 提供交互式命令行界面，支持：
// - 多行输入（块打开或括号未闭合时继续）
// - 历史记录与行编辑（liner）
// - 特殊命令（:help, :quit, :reset, :load, :env）
// - 自动打印表达式结果
// - 编译器模式下打印每段输入生成的 LLVM IR

package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/culebra-lang/culebra/internal/ast"
	"github.com/culebra-lang/culebra/internal/codegen"
	"github.com/culebra-lang/culebra/internal/interpreter"
	"github.com/culebra-lang/culebra/internal/parser"
	"github.com/culebra-lang/culebra/internal/pkg"
)

// Mode REPL 的求值方式
type Mode int

const (
	ModeInterpret Mode = iota // 逐段解释执行
	ModeEmitIR                // 打印每段输入的 LLVM IR
)

// Config REPL 配置
type Config struct {
	Mode           Mode
	PromptPrimary  string
	PromptContinue string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Mode:           ModeInterpret,
		PromptPrimary:  ">>> ",
		PromptContinue: "... ",
	}
}

// REPL 交互式解释器
type REPL struct {
	interp         *interpreter.Interpreter
	writer         io.Writer
	mode           Mode
	promptPrimary  string
	promptContinue string
}

// New 创建 REPL
func New(config Config) *REPL {
	return &REPL{
		interp:         interpreter.New(),
		writer:         os.Stdout,
		mode:           config.Mode,
		promptPrimary:  config.PromptPrimary,
		promptContinue: config.PromptContinue,
	}
}

// Run 运行 REPL，Ctrl-D 退出
func (r *REPL) Run() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	r.printWelcome()

	var buffer []string
	for {
		prompt := r.promptPrimary
		if len(buffer) > 0 {
			prompt = r.promptContinue
		}

		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl-C 丢弃当前输入
				buffer = buffer[:0]
				continue
			}
			fmt.Fprintln(r.writer, "\nBye!")
			return
		}

		if len(buffer) == 0 && strings.HasPrefix(strings.TrimSpace(input), ":") {
			if r.handleCommand(strings.TrimSpace(input)) {
				line.AppendHistory(input)
				continue
			}
		}

		buffer = append(buffer, input)
		source := strings.Join(buffer, "\n")

		if r.needsMoreInput(source, input) {
			continue
		}

		buffer = buffer[:0]
		if strings.TrimSpace(source) == "" {
			continue
		}

		line.AppendHistory(source)
		r.execute(source)
	}
}

// printWelcome 打印欢迎信息
func (r *REPL) printWelcome() {
	fmt.Fprintf(r.writer, "Culebra %s\n", pkg.Version)
	if r.mode == ModeEmitIR {
		fmt.Fprintln(r.writer, "Compiler mode: each input prints its LLVM IR")
	}
	fmt.Fprintln(r.writer, "Type :help for help, Ctrl-D to exit")
	fmt.Fprintln(r.writer)
}

// handleCommand 处理特殊命令
func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case ":help", ":h", ":?":
		r.printHelp()
		return true

	case ":quit", ":q", ":exit":
		fmt.Fprintln(r.writer, "Bye!")
		os.Exit(0)
		return true

	case ":reset", ":clear":
		r.interp = interpreter.New()
		fmt.Fprintln(r.writer, "Environment reset.")
		return true

	case ":load", ":l":
		if len(args) < 1 {
			fmt.Fprintln(r.writer, "Usage: :load <filename>")
			return true
		}
		r.loadFile(args[0])
		return true

	case ":env":
		for _, name := range r.interp.Globals().Names() {
			fmt.Fprintln(r.writer, name)
		}
		return true

	default:
		fmt.Fprintf(r.writer, "Unknown command: %s\n", cmd)
		fmt.Fprintln(r.writer, "Type :help for available commands.")
		return true
	}
}

// printHelp 打印帮助信息
func (r *REPL) printHelp() {
	fmt.Fprintln(r.writer, "Available commands:")
	fmt.Fprintln(r.writer, "  :help, :h, :?     Show this help message")
	fmt.Fprintln(r.writer, "  :quit, :q, :exit  Exit the REPL")
	fmt.Fprintln(r.writer, "  :reset, :clear    Reset the environment")
	fmt.Fprintln(r.writer, "  :load <file>      Load and execute a file")
	fmt.Fprintln(r.writer, "  :env              Show defined names")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Multi-line input:")
	fmt.Fprintln(r.writer, "  A line ending in ':' opens a block; finish the")
	fmt.Fprintln(r.writer, "  block with an empty line. Open brackets also")
	fmt.Fprintln(r.writer, "  continue on the next line.")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Examples:")
	fmt.Fprintln(r.writer, "  >>> x = 10")
	fmt.Fprintln(r.writer, "  >>> print(x * 2)")
	fmt.Fprintln(r.writer, "  >>> def add(a, b):")
	fmt.Fprintln(r.writer, "  ...     return a + b")
	fmt.Fprintln(r.writer, "  ...")
}

// loadFile 加载并执行文件
func (r *REPL) loadFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(r.writer, "Error loading file: %v\n", err)
		return
	}

	p := parser.New(string(source), filename)
	program := p.Parse()
	if p.HasErrors() {
		for _, diag := range p.Errors() {
			fmt.Fprintln(r.writer, diag.Error())
		}
		return
	}
	if err := r.interp.Evaluate(program); err != nil {
		fmt.Fprintln(r.writer, err.Error())
		return
	}
	fmt.Fprintf(r.writer, "Loaded: %s\n", filename)
}

// needsMoreInput 块打开、括号未闭合或块尚未以空行收束时继续读
func (r *REPL) needsMoreInput(source, lastLine string) bool {
	if bracketDepth(source) > 0 {
		return true
	}

	trimmed := strings.TrimRight(source, " \t")
	if strings.HasSuffix(trimmed, ":") {
		return true
	}

	// 进入块模式后空行才收束
	if blockOpen(source) {
		return strings.TrimSpace(lastLine) != ""
	}
	return false
}

// blockOpen 是否有行以 ':' 结束（注释与字符串外）
func blockOpen(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		line = stripComment(line)
		if strings.HasSuffix(strings.TrimRight(line, " \t"), ":") {
			return true
		}
	}
	return false
}

// bracketDepth 字符串外的未闭合括号数
func bracketDepth(source string) int {
	depth := 0
	inString := false
	quote := byte(0)
	for i := 0; i < len(source); i++ {
		c := source[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == quote {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '#':
			// 跳到行尾
			for i < len(source) && source[i] != '\n' {
				i++
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

func stripComment(line string) string {
	inString := false
	quote := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == quote {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '#':
			return line[:i]
		}
	}
	return line
}

// execute 解析并按模式求值一段输入
func (r *REPL) execute(source string) {
	p := parser.New(source+"\n", "<repl>")
	program := p.Parse()
	if p.HasErrors() {
		for _, diag := range p.Errors() {
			fmt.Fprintln(r.writer, diag.Error())
		}
		return
	}

	if r.mode == ModeEmitIR {
		ir, err := codegen.Generate(program)
		if err != nil {
			fmt.Fprintln(r.writer, err.Error())
			return
		}
		fmt.Fprint(r.writer, ir)
		return
	}

	// 单独的表达式求值后回显，None 除外
	if len(program.Statements) == 1 {
		if exprStmt, ok := program.Statements[0].(*ast.ExpressionStatement); ok {
			value, err := r.interp.EvaluateExpr(exprStmt.Expr)
			if err != nil {
				fmt.Fprintln(r.writer, err.Error())
				return
			}
			if value != nil && value != interpreter.None {
				fmt.Fprintln(r.writer, value.Inspect())
			}
			return
		}
	}

	if err := r.interp.Evaluate(program); err != nil {
		fmt.Fprintln(r.writer, err.Error())
	}
}

// complete 关键字和命令补全
func (r *REPL) complete(prefix string) []string {
	var completions []string

	if strings.HasPrefix(prefix, ":") {
		for _, cmd := range []string{":help", ":quit", ":reset", ":load", ":env"} {
			if strings.HasPrefix(cmd, prefix) {
				completions = append(completions, cmd)
			}
		}
		return completions
	}

	words := []string{
		"if", "elif", "else", "while", "for", "def", "return",
		"and", "or", "not", "true", "false",
		"print", "input", "len", "chr", "ord", "int", "float", "str",
		"abs", "read_file", "read_lines", "Map", "Set",
	}
	for _, w := range words {
		if prefix != "" && strings.HasPrefix(w, prefix) {
			completions = append(completions, w)
		}
	}
	for _, name := range r.interp.Globals().Names() {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			completions = append(completions, name)
		}
	}
	return completions
}
