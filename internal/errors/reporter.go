package errors

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 错误报告器
//
// 缓存源代码行，把诊断连同出错行和脱字符一起写到输出（默认 stderr）。
type Reporter struct {
	formatter   *Formatter
	sourceCache map[string][]string // 源代码缓存
	out         io.Writer
	reported    []*Diagnostic
}

// NewReporter 创建错误报告器
func NewReporter() *Reporter {
	return &Reporter{
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
		out:         os.Stderr,
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) {
	r.formatter = f
}

// SetOutput 设置输出目标
func (r *Reporter) SetOutput(w io.Writer) {
	r.out = w
}

// LoadSource 加载源文件
func (r *Reporter) LoadSource(filename string) error {
	if _, ok := r.sourceCache[filename]; ok {
		return nil // 已加载
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	r.sourceCache[filename] = lines
	return nil
}

// SetSource 设置源代码（用于测试或内存中的源代码，如 REPL）
func (r *Reporter) SetSource(filename string, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// GetSourceLines 获取源代码行数组
func (r *Reporter) GetSourceLines(filename string) []string {
	return r.sourceCache[filename]
}

// Report 报告一条诊断
func (r *Reporter) Report(d *Diagnostic) {
	if d.Pos.Filename != "" {
		r.LoadSource(d.Pos.Filename)
	}
	r.reported = append(r.reported, d)
	io.WriteString(r.out, r.formatter.Format(d, r.GetSourceLines(d.Pos.Filename)))
}

// ReportAll 报告多条诊断
func (r *Reporter) ReportAll(ds []*Diagnostic) {
	for _, d := range ds {
		r.Report(d)
	}
}

// Count 已报告的诊断数
func (r *Reporter) Count() int {
	return len(r.reported)
}

// HasErrors 是否报告过诊断
func (r *Reporter) HasErrors() bool {
	return len(r.reported) > 0
}
