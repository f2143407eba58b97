package lsp

import (
	"sync"

	"go.lsp.dev/uri"

	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/parser"
)

// maxDocumentSize 超过此大小的文档跳过诊断（500KB）
const maxDocumentSize = 500 * 1024

// Document 表示一个打开的文档
type Document struct {
	URI     string
	Content string
	Version int

	// 延迟运行的诊断结果
	diags     []*errors.Diagnostic
	diagnosed bool
	mu        sync.Mutex
}

// Diagnostics 返回文档的词法/语法诊断（延迟运行）
func (d *Document) Diagnostics() []*errors.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.diagnosed {
		d.diagnose()
	}
	return d.diags
}

func (d *Document) diagnose() {
	if len(d.Content) > maxDocumentSize {
		d.diags = nil
		d.diagnosed = true
		return
	}

	p := parser.New(d.Content, uriToPath(d.URI))
	p.Parse()
	d.diags = p.Errors()
	d.diagnosed = true
}

// Invalidate 标记文档需要重新诊断
func (d *Document) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diagnosed = false
	d.diags = nil
}

// uriToPath 文档 URI 转文件路径，失败时原样返回
func uriToPath(docURI string) string {
	parsed, err := uri.Parse(docURI)
	if err != nil {
		return docURI
	}
	return parsed.Filename()
}

// DocumentManager 文档管理器
type DocumentManager struct {
	docs   map[string]*Document
	mu     sync.Mutex
	logger *Logger
}

// NewDocumentManager 创建文档管理器
func NewDocumentManager(logger *Logger) *DocumentManager {
	return &DocumentManager{
		docs:   make(map[string]*Document),
		logger: logger,
	}
}

// Open 打开文档
func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.docs[uri]; exists {
		doc.Content = content
		doc.Version = version
		doc.Invalidate()
		dm.logger.Debug("Document updated: %s (version %d)", uri, version)
		return doc
	}

	doc := &Document{
		URI:     uri,
		Content: content,
		Version: version,
	}
	dm.docs[uri] = doc
	dm.logger.Debug("Document opened: %s (version %d, size %d bytes)", uri, version, len(content))
	return doc
}

// Update 更新文档内容
func (dm *DocumentManager) Update(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, exists := dm.docs[uri]
	if !exists {
		return nil
	}

	doc.Content = content
	doc.Version = version
	doc.Invalidate()
	dm.logger.Debug("Document content updated: %s (version %d)", uri, version)
	return doc
}

// Close 关闭文档
func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, exists := dm.docs[uri]; !exists {
		return
	}
	delete(dm.docs, uri)
	dm.logger.Debug("Document closed: %s (remaining: %d)", uri, len(dm.docs))
}

// Get 获取文档
func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.docs[uri]
}

// Count 返回当前打开的文档数量
func (dm *DocumentManager) Count() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.docs)
}
