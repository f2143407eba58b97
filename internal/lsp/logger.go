package lsp

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger 服务器日志
//
// LSP 的 stdout 被协议占用，日志只能走文件或 stderr。调试日志由
// 环境变量 CULEBRA_LSP_DEBUG 打开，错误始终写 stderr。
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	enabled bool
}

// NewLogger 创建日志记录器，logPath 为空时不写文件
func NewLogger(logPath string) *Logger {
	l := &Logger{enabled: debugEnabled()}

	if l.enabled && logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", logPath, err)
		} else {
			l.file = f
		}
	}

	return l
}

func debugEnabled() bool {
	switch os.Getenv("CULEBRA_LSP_DEBUG") {
	case "1", "true", "on":
		return true
	}
	return false
}

// IsEnabled 返回调试日志是否启用
func (l *Logger) IsEnabled() bool {
	return l.enabled
}

// Close 关闭日志文件
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Debug 调试日志，仅在启用时写出
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.enabled {
		l.write("DEBUG", false, format, args...)
	}
}

// Info 一般日志，仅在启用时写出
func (l *Logger) Info(format string, args ...interface{}) {
	if l.enabled {
		l.write("INFO", false, format, args...)
	}
}

// Error 错误日志，始终写 stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERROR", true, format, args...)
}

func (l *Logger) write(level string, toStderr bool, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.WriteString(line)
	}
	if toStderr {
		fmt.Fprint(os.Stderr, line)
	}
}
