package interpreter

import (
	"os"
	"strings"

	"github.com/culebra-lang/culebra/internal/errors"
)

// ============================================================================
// 内置函数：输入输出
// ============================================================================

// builtinInput 可选提示串，读到换行为止，返回不含换行的一行
func builtinInput(i *Interpreter, args []Value) (Value, error) {
	if len(args) > 1 {
		return nil, errors.Newf(errors.TypeError, noPos, "input() takes at most 1 argument (%d given)", len(args))
	}
	if len(args) == 1 {
		prompt, ok := args[0].(*String)
		if !ok {
			return nil, errors.Newf(errors.TypeError, noPos, "input() prompt must be a string, got %s", args[0].Type())
		}
		if _, err := i.stdout.Write([]byte(prompt.Value)); err != nil {
			return nil, errors.Newf(errors.ValueError, noPos, "input() failed: %v", err)
		}
	}

	line, err := i.stdin.ReadString('\n')
	if err != nil && line == "" {
		// EOF 时返回空串
		return &String{Value: ""}, nil
	}
	line = strings.TrimRight(line, "\r\n")
	return &String{Value: line}, nil
}

// builtinReadFile 读整个文件为字符串
func builtinReadFile(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("read_file", args, 1); err != nil {
		return nil, err
	}
	path, ok := args[0].(*String)
	if !ok {
		return nil, errors.Newf(errors.TypeError, noPos, "read_file() path must be a string, got %s", args[0].Type())
	}
	data, err := os.ReadFile(path.Value)
	if err != nil {
		return nil, errors.Newf(errors.FileNotFoundError, noPos, "File not found: %s", path.Value)
	}
	return &String{Value: string(data)}, nil
}

// builtinReadLines 按行读文件，去掉每行末尾的换行符
func builtinReadLines(i *Interpreter, args []Value) (Value, error) {
	if err := builtinArity("read_lines", args, 1); err != nil {
		return nil, err
	}
	path, ok := args[0].(*String)
	if !ok {
		return nil, errors.Newf(errors.TypeError, noPos, "read_lines() path must be a string, got %s", args[0].Type())
	}
	data, err := os.ReadFile(path.Value)
	if err != nil {
		return nil, errors.Newf(errors.FileNotFoundError, noPos, "File not found: %s", path.Value)
	}

	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return &Array{Elements: []Value{}}, nil
	}
	lines := strings.Split(text, "\n")
	elements := make([]Value, len(lines))
	for idx, line := range lines {
		elements[idx] = &String{Value: strings.TrimRight(line, "\r")}
	}
	return &Array{Elements: elements}, nil
}
