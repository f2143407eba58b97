package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/culebra-lang/culebra/internal/compiler"
	culerrors "github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/i18n"
	"github.com/culebra-lang/culebra/internal/interpreter"
	"github.com/culebra-lang/culebra/internal/parser"
	"github.com/culebra-lang/culebra/internal/pkg"
	"github.com/culebra-lang/culebra/internal/repl"
)

// 全局语言参数
var globalLang string

func main() {
	// 预扫描全局参数 --lang 或 -lang
	args := preprocessArgs(os.Args[1:])

	// 初始化语言
	i18n.Init(globalLang)

	if len(args) < 1 {
		// 无参数时进入 REPL
		cmdRepl(nil)
		return
	}

	command := args[0]

	switch command {
	case "run":
		cmdRun(args[1:])
	case "build":
		cmdBuild(args[1:])
	case "check":
		cmdCheck(args[1:])
	case "repl":
		cmdRepl(args[1:])
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		// 兼容旧用法：直接运行文件
		if !isFlag(args[0]) {
			cmdRun(args)
		} else {
			fmt.Fprintf(os.Stderr, i18n.Msg().ErrUnknownCmd+"\n\n", command)
			printUsage()
			os.Exit(1)
		}
	}
}

// preprocessArgs 预处理参数，提取全局 --lang 参数
func preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--lang" || arg == "-lang" {
			if i+1 < len(args) {
				globalLang = args[i+1]
				i++ // 跳过下一个参数
				continue
			}
		} else if strings.HasPrefix(arg, "--lang=") {
			globalLang = strings.TrimPrefix(arg, "--lang=")
			continue
		} else if strings.HasPrefix(arg, "-lang=") {
			globalLang = strings.TrimPrefix(arg, "-lang=")
			continue
		}
		result = append(result, arg)
	}
	return result
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

// reportDiagnostics 带源码行和插入符打印诊断
func reportDiagnostics(filename, source string, diags []*culerrors.Diagnostic) {
	r := culerrors.NewReporter()
	r.SetSource(filename, source)
	r.ReportAll(diags)
}

func printUsage() {
	m := i18n.Msg()
	fmt.Printf(m.VersionTitle+"\n", pkg.Version)
	fmt.Println(m.VersionDesc)
	fmt.Println()
	fmt.Println(m.HelpUsage)
	fmt.Println("  culebra [--lang en|zh] <command> [options] [arguments]")
	fmt.Println()
	fmt.Println(m.HelpCommands)
	fmt.Printf("  run <file>      %s\n", m.CmdRun)
	fmt.Printf("  build <file>    %s\n", m.CmdBuild)
	fmt.Printf("  check <file>    %s\n", m.CmdCheck)
	fmt.Printf("  repl            %s\n", m.CmdRepl)
	fmt.Printf("  version         %s\n", m.CmdVersion)
	fmt.Printf("  help            %s\n", m.CmdHelp)
	fmt.Println()
	fmt.Println(m.HelpOptions)
	fmt.Printf("  -o <file>           %s\n", m.OptOutput)
	fmt.Printf("  --emit-llvm         %s\n", m.OptEmitLLVM)
	fmt.Printf("  --keep-ir           %s\n", m.OptKeepIR)
	fmt.Printf("  --no-optimize       %s\n", m.OptNoOptimize)
	fmt.Printf("  --runtime-lib <f>   %s\n", m.OptRuntimeLib)
	fmt.Printf("  --clang <path>      %s\n", m.OptClang)
	fmt.Printf("  --lang <en|zh>      %s\n", m.OptLang)
	fmt.Println()
	fmt.Println("  " + m.NoteCompiled)
	fmt.Println()
	fmt.Println(m.HelpExamples)
	fmt.Println("  culebra run main.cb")
	fmt.Println("  culebra main.cb")
	fmt.Println("  culebra build -o main main.cb")
	fmt.Println("  culebra build --emit-llvm main.cb")
	fmt.Println("  culebra repl --compiler")
	fmt.Println("  culebra --lang zh help")
}

// cmdRun 解释执行源文件
func cmdRun(args []string) {
	m := i18n.Msg()
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	compile := fs.Bool("compile", false, m.OptCompile)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " culebra run [options] <file>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, m.ErrNoInput)
		os.Exit(1)
	}

	filename := fs.Arg(0)

	// --compile 模式：编译后运行生成的可执行文件
	if *compile {
		runCompiled(filename)
		return
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrReadFile+"\n", err)
		os.Exit(1)
	}

	p := parser.New(string(source), filename)
	program := p.Parse()
	if p.HasErrors() {
		reportDiagnostics(filename, string(source), p.Errors())
		os.Exit(1)
	}

	interp := interpreter.New()
	if err := interp.Evaluate(program); err != nil {
		var diag *culerrors.Diagnostic
		if errors.As(err, &diag) {
			reportDiagnostics(filename, string(source), []*culerrors.Diagnostic{diag})
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// runCompiled 编译到临时可执行文件后立即运行
func runCompiled(filename string) {
	tmpDir, err := os.MkdirTemp("", "culebra-run-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	output := filepath.Join(tmpDir, "a.out")
	if err := compiler.CompileFile(filename, compiler.Options{
		Output:   output,
		Optimize: true,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := execBinary(output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execBinary 运行可执行文件，透传标准输入输出和退出码
func execBinary(path string) error {
	cmd := exec.Command(path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	return nil
}

// cmdBuild 编译为本地可执行文件
func cmdBuild(args []string) {
	m := i18n.Msg()
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", m.OptOutput)
	emitLLVM := fs.Bool("emit-llvm", false, m.OptEmitLLVM)
	keepIR := fs.Bool("keep-ir", false, m.OptKeepIR)
	noOptimize := fs.Bool("no-optimize", false, m.OptNoOptimize)
	runtimeLib := fs.String("runtime-lib", "", m.OptRuntimeLib)
	clangPath := fs.String("clang", "", m.OptClang)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " culebra build [options] <file>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	opts := compiler.Options{
		Output:    *output,
		EmitLLVM:  *emitLLVM,
		KeepIR:    *keepIR,
		Optimize:  !*noOptimize,
		RuntimeC:  *runtimeLib,
		ClangPath: *clangPath,
	}

	filename := fs.Arg(0)

	// 没有给文件时读取 culebra.toml 的项目配置
	if filename == "" {
		cfgPath := pkg.FindConfigFile(".")
		if cfgPath == "" {
			fs.Usage()
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, m.ErrNoInput)
			os.Exit(1)
		}
		cfg, err := pkg.LoadConfig(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		root := filepath.Dir(cfgPath)
		filename = filepath.Join(root, cfg.Project.Entry)
		if opts.Output == "" && cfg.Project.Output != "" {
			opts.Output = filepath.Join(root, cfg.Project.Output)
		}
		if !*noOptimize {
			opts.Optimize = cfg.Optimized()
		}
		if opts.RuntimeC == "" {
			opts.RuntimeC = cfg.Build.RuntimeLib
		}
		if opts.ClangPath == "" {
			opts.ClangPath = cfg.Build.Clang
		}
	}

	if err := compiler.CompileFile(filename, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *emitLLVM {
		irPath := opts.Output
		if irPath == "" {
			irPath = compiler.DefaultOutput(filename, true)
		}
		fmt.Printf(m.SuccessIRWritten+"\n", irPath)
		return
	}

	outPath := opts.Output
	if outPath == "" {
		outPath = compiler.DefaultOutput(filename, false)
	}
	fmt.Printf(m.SuccessBuildComplete+"\n", outPath)
}

// cmdCheck 语法检查
func cmdCheck(args []string) {
	m := i18n.Msg()
	fs := flag.NewFlagSet("check", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " culebra check <file>")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, m.ErrNoInput)
		os.Exit(1)
	}

	filename := fs.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrReadFile+"\n", err)
		os.Exit(1)
	}

	p := parser.New(string(source), filename)
	p.Parse()
	if p.HasErrors() {
		reportDiagnostics(filename, string(source), p.Errors())
		os.Exit(1)
	}

	fmt.Printf(m.SuccessSyntaxOK+"\n", filename)
}

// cmdRepl 启动交互式 REPL
func cmdRepl(args []string) {
	m := i18n.Msg()
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	compilerMode := fs.Bool("compiler", false, m.OptCompiler)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := repl.DefaultConfig()
	if *compilerMode {
		cfg.Mode = repl.ModeEmitIR
	}

	repl.New(cfg).Run()
}

// cmdVersion 显示版本信息
func cmdVersion() {
	m := i18n.Msg()
	fmt.Printf(m.VersionTitle+"\n", pkg.Version)
	fmt.Println(m.VersionDesc)
}
