// Package i18n 提供 CLI 消息的多语言支持
package i18n

import (
	"os"
	"strings"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// Messages 消息结构
type Messages struct {
	// 版本信息
	VersionTitle string
	VersionDesc  string

	// 帮助信息
	HelpUsage    string
	HelpCommands string
	HelpOptions  string
	HelpExamples string

	// 命令描述
	CmdRun     string
	CmdBuild   string
	CmdCheck   string
	CmdRepl    string
	CmdVersion string
	CmdHelp    string

	// 选项描述
	OptOutput     string
	OptEmitLLVM   string
	OptKeepIR     string
	OptNoOptimize string
	OptRuntimeLib string
	OptClang      string
	OptCompile    string
	OptCompiler   string
	OptLang       string

	// 提示信息
	NoteCompiled string

	// 错误信息
	ErrNoInput    string
	ErrReadFile   string
	ErrUnknownCmd string

	// 成功信息
	SuccessSyntaxOK      string
	SuccessBuildComplete string
	SuccessIRWritten     string
}

// 英文消息
var messagesEN = Messages{
	VersionTitle: "Culebra %s",
	VersionDesc:  "A dynamically-typed, indentation-sensitive language with an AOT LLVM backend",

	HelpUsage:    "Usage:",
	HelpCommands: "Commands:",
	HelpOptions:  "Build Options:",
	HelpExamples: "Examples:",

	CmdRun:     "Run a Culebra source file with the interpreter",
	CmdBuild:   "Compile to a native executable via clang",
	CmdCheck:   "Check syntax without running",
	CmdRepl:    "Start the interactive REPL",
	CmdVersion: "Show version information",
	CmdHelp:    "Show this help message",

	OptOutput:     "Output file path",
	OptEmitLLVM:   "Write LLVM IR and stop",
	OptKeepIR:     "Keep the intermediate .ll file",
	OptNoOptimize: "Compile with -O0 instead of -O2",
	OptRuntimeLib: "Path to the C runtime source",
	OptClang:      "Path to the clang executable",
	OptCompile:    "Compile instead of interpreting",
	OptCompiler:   "REPL prints LLVM IR instead of evaluating",
	OptLang:       "Set message language (en/zh)",

	NoteCompiled: "Compiled code supports top-level functions only; nested def, closures, Map and Set require the interpreter.",

	ErrNoInput:    "Error: no input file specified",
	ErrReadFile:   "Error reading file: %v",
	ErrUnknownCmd: "Unknown command: %s",

	SuccessSyntaxOK:      "%s: syntax OK",
	SuccessBuildComplete: "Built %s",
	SuccessIRWritten:     "LLVM IR written to %s",
}

// 中文消息
var messagesZH = Messages{
	VersionTitle: "Culebra %s",
	VersionDesc:  "一门动态类型、缩进敏感的语言，带 AOT LLVM 后端",

	HelpUsage:    "用法:",
	HelpCommands: "命令:",
	HelpOptions:  "编译选项:",
	HelpExamples: "示例:",

	CmdRun:     "用解释器运行 Culebra 源文件",
	CmdBuild:   "经 clang 编译为本地可执行文件",
	CmdCheck:   "检查语法，不运行",
	CmdRepl:    "启动交互式 REPL",
	CmdVersion: "显示版本信息",
	CmdHelp:    "显示帮助信息",

	OptOutput:     "输出文件路径",
	OptEmitLLVM:   "只写出 LLVM IR",
	OptKeepIR:     "保留中间 .ll 文件",
	OptNoOptimize: "使用 -O0 而不是 -O2",
	OptRuntimeLib: "C 运行时源文件路径",
	OptClang:      "clang 可执行文件路径",
	OptCompile:    "编译而不是解释执行",
	OptCompiler:   "REPL 打印 LLVM IR 而不求值",
	OptLang:       "设置消息语言 (en/zh)",

	NoteCompiled: "编译执行只支持顶层函数；嵌套 def、闭包、Map 和 Set 需用解释器运行。",

	ErrNoInput:    "错误: 未指定输入文件",
	ErrReadFile:   "读取文件错误: %v",
	ErrUnknownCmd: "未知命令: %s",

	SuccessSyntaxOK:      "%s: 语法正确",
	SuccessBuildComplete: "编译完成 %s",
	SuccessIRWritten:     "LLVM IR 已写入 %s",
}

// 当前消息
var msg = messagesEN

// 当前语言
var currentLang = LangEnglish

// Init 初始化语言设置
// 优先级: 命令行参数 > 环境变量 CULEBRA_LANG > LANG > 默认英文
func Init(langOverride string) {
	if langOverride != "" {
		setLanguage(langOverride)
		return
	}

	if envLang := os.Getenv("CULEBRA_LANG"); envLang != "" {
		setLanguage(envLang)
		return
	}

	for _, v := range []string{"LANG", "LANGUAGE", "LC_ALL", "LC_MESSAGES"} {
		if val := strings.ToLower(os.Getenv(v)); strings.Contains(val, "zh") {
			setLanguage("zh")
			return
		}
	}

	setLanguage("en")
}

// setLanguage 设置语言
func setLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch lang {
	case "zh", "zh-cn", "zh-tw", "zh-hk", "chinese":
		currentLang = LangChinese
		msg = messagesZH
	default:
		currentLang = LangEnglish
		msg = messagesEN
	}
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	return currentLang
}

// Msg 获取当前消息对象
func Msg() *Messages {
	return &msg
}
