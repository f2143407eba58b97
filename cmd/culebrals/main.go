package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/culebra-lang/culebra/internal/lsp"
	"github.com/culebra-lang/culebra/internal/pkg"
)

func main() {
	// 解析命令行参数
	showVersion := flag.Bool("version", false, "显示版本信息")
	showHelp := flag.Bool("help", false, "显示帮助信息")
	logFile := flag.String("log", "", "日志文件路径（默认不记录日志，设置环境变量 CULEBRA_LSP_DEBUG=1 启用日志）")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Culebra Language Server v%s\n", pkg.Version)
		os.Exit(0)
	}

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// 创建并启动 LSP 服务器
	server := lsp.NewServer(*logFile)
	ctx := context.Background()

	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Culebra Language Server - 语法诊断 LSP 服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  culebrals [options]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --version    显示版本信息")
	fmt.Println("  --help       显示帮助信息")
	fmt.Println("  --log <file> 日志文件路径")
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  CULEBRA_LSP_DEBUG=1  启用调试日志（默认关闭）")
	fmt.Println()
	fmt.Println("LSP 服务器通过标准输入输出 (stdio) 与编辑器通信，")
	fmt.Println("在文档打开、修改和保存时发布词法和语法诊断。")
}
