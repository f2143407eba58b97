package compiler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/culebra-lang/culebra/internal/codegen"
	"github.com/culebra-lang/culebra/internal/parser"
)

// ============================================================================
// AOT 编译管线
// ============================================================================
//
// 源码 -> 解析 -> LLVM IR 文本 -> clang 与 runtime/runtime.c 一起链接
// 成本地可执行文件。IR 生成在进程内完成，只有最后一步调用外部的
// clang。
//
// ============================================================================

// Options 一次编译的全部开关
type Options struct {
	Output      string   // 可执行文件路径，空则由源文件名推导
	EmitLLVM    bool     // 只写出 .ll 文本，不调用 clang
	KeepIR      bool     // 链接后保留中间 .ll 文件
	Optimize    bool     // clang -O2，关闭则 -O0
	RuntimeLibs []string // 额外链接的 C 源文件或库
	RuntimeC    string   // runtime.c 路径，空则自动查找
	ClangPath   string   // clang 可执行文件，空则取 PATH 里的 "clang"
}

// CompileToIR 把源码文本编译成 LLVM IR 文本
//
// 解析错误和静态定型失败都以 *errors.Diagnostic 返回。
func CompileToIR(source, filename string) (string, error) {
	p := parser.New(source, filename)
	program := p.Parse()
	if p.HasErrors() {
		return "", p.Errors()[0]
	}
	return codegen.Generate(program)
}

// CompileFile 编译一个 .cb 源文件
func CompileFile(sourceFile string, opts Options) error {
	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", sourceFile, err)
	}

	ir, err := CompileToIR(string(source), sourceFile)
	if err != nil {
		return err
	}

	output := opts.Output
	if output == "" {
		output = DefaultOutput(sourceFile, opts.EmitLLVM)
	}

	if opts.EmitLLVM {
		return os.WriteFile(output, []byte(ir), 0o644)
	}

	// IR 落盘：--keep-ir 放在源文件旁，否则用临时文件
	var irPath string
	if opts.KeepIR {
		irPath = replaceExt(sourceFile, ".ll")
		if err := os.WriteFile(irPath, []byte(ir), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", irPath, err)
		}
	} else {
		tmp, err := os.CreateTemp("", "culebra-*.ll")
		if err != nil {
			return fmt.Errorf("cannot create temporary IR file: %w", err)
		}
		irPath = tmp.Name()
		_, werr := tmp.WriteString(ir)
		cerr := tmp.Close()
		if werr != nil || cerr != nil {
			os.Remove(irPath)
			return fmt.Errorf("cannot write temporary IR file %s", irPath)
		}
		defer os.Remove(irPath)
	}

	runtimeC := opts.RuntimeC
	if runtimeC == "" {
		runtimeC, err = findRuntime()
		if err != nil {
			return err
		}
	}

	clang := opts.ClangPath
	if clang == "" {
		clang = "clang"
	}

	args := make([]string, 0, 6+len(opts.RuntimeLibs))
	if opts.Optimize {
		args = append(args, "-O2")
	} else {
		args = append(args, "-O0")
	}
	args = append(args, irPath, runtimeC)
	args = append(args, opts.RuntimeLibs...)
	args = append(args, "-o", output)

	cmd := exec.Command(clang, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("clang failed: %s", msg)
	}
	return nil
}

// DefaultOutput 由源文件名推导输出路径
//
// hello.cb -> hello（或 --emit-llvm 时 hello.ll）。
func DefaultOutput(sourceFile string, emitLLVM bool) string {
	if emitLLVM {
		return replaceExt(sourceFile, ".ll")
	}
	return replaceExt(sourceFile, "")
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// findRuntime 先在可执行文件旁找 runtime/runtime.c，再退回工作目录
func findRuntime() (string, error) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "runtime", "runtime.c"))
	}
	candidates = append(candidates, filepath.Join("runtime", "runtime.c"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("runtime library not found, looked in %s", strings.Join(candidates, ", "))
}
