package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/culebra-lang/culebra/internal/pkg"
)

// Server LSP 服务器
//
// stdio 上的 JSON-RPC，Content-Length 分帧。文档全量同步，每次
// didOpen/didChange/didSave 后发布词法和语法诊断。
type Server struct {
	docManager *DocumentManager
	logger     *Logger

	workspaceRoot string

	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	initialized bool
	shutdown    bool
}

// NewServer 创建 LSP 服务器
func NewServer(logPath string) *Server {
	logger := NewLogger(logPath)

	return &Server{
		logger:     logger,
		docManager: NewDocumentManager(logger),
		reader:     bufio.NewReader(os.Stdin),
		writer:     os.Stdout,
	}
}

// Run 启动 LSP 服务器主循环
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Culebra LSP server started (debug=%v)", s.logger.IsEnabled())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("Client disconnected")
				return nil
			}
			s.logger.Error("Error reading message: %v", err)
			continue
		}

		s.handleMessage(msg)

		if s.shutdown {
			s.logger.Info("Server shutdown")
			s.logger.Close()
			return nil
		}
	}
}

// readMessage 读取一条 LSP 消息
func (s *Server) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)

		if line == "" {
			// 头部结束
			break
		}

		if strings.HasPrefix(line, "Content-Length:") {
			lengthStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %s", lengthStr)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}

	s.logger.Debug("Received message: %d bytes", contentLength)
	return content, nil
}

// sendMessage 发送一条 LSP 消息
func (s *Server) sendMessage(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(content))
	if _, err := s.writer.Write([]byte(header)); err != nil {
		return err
	}
	_, err = s.writer.Write(content)
	return err
}

// handleMessage 按方法分发
func (s *Server) handleMessage(msg []byte) {
	var baseMsg struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.Unmarshal(msg, &baseMsg); err != nil {
		s.logger.Error("Error parsing message: %v", err)
		return
	}

	s.logger.Debug("Handling method: %s", baseMsg.Method)

	switch baseMsg.Method {
	case "initialize":
		s.handleInitialize(baseMsg.ID, baseMsg.Params)
	case "initialized":
		s.initialized = true
		s.logger.Info("Server initialized")
	case "shutdown":
		s.sendResult(baseMsg.ID, nil)
	case "exit":
		s.shutdown = true
	case "textDocument/didOpen":
		s.handleDidOpen(baseMsg.Params)
	case "textDocument/didChange":
		s.handleDidChange(baseMsg.Params)
	case "textDocument/didClose":
		s.handleDidClose(baseMsg.Params)
	case "textDocument/didSave":
		s.handleDidSave(baseMsg.Params)
	default:
		s.logger.Debug("Unhandled method: %s", baseMsg.Method)
		if baseMsg.ID != nil {
			s.sendError(baseMsg.ID, -32601, "Method not found: "+baseMsg.Method)
		}
	}
}

// handleInitialize 处理初始化请求
func (s *Server) handleInitialize(id json.RawMessage, params json.RawMessage) {
	var initParams protocol.InitializeParams
	if err := json.Unmarshal(params, &initParams); err != nil {
		s.sendError(id, -32700, "Parse error")
		return
	}

	if initParams.RootURI != "" {
		s.workspaceRoot = string(initParams.RootURI)
	}
	s.logger.Info("Initialize: workspace=%s", s.workspaceRoot)

	result := map[string]interface{}{
		"capabilities": map[string]interface{}{
			// 文档同步：完整同步
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // Full sync
				"save": map[string]interface{}{
					"includeText": true,
				},
			},
		},
		"serverInfo": map[string]interface{}{
			"name":    "culebrals",
			"version": pkg.Version,
		},
	}

	s.sendResult(id, result)
}

// handleDidOpen 处理文档打开
func (s *Server) handleDidOpen(params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("Error parsing didOpen params: %v", err)
		return
	}

	docURI := string(p.TextDocument.URI)
	doc := s.docManager.Open(docURI, p.TextDocument.Text, int(p.TextDocument.Version))
	s.publishDiagnostics(doc)
}

// handleDidChange 处理文档变更
func (s *Server) handleDidChange(params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("Error parsing didChange params: %v", err)
		return
	}

	// 完整同步：使用第一个变更的文本内容
	if len(p.ContentChanges) > 0 {
		docURI := string(p.TextDocument.URI)
		doc := s.docManager.Update(docURI, p.ContentChanges[0].Text, int(p.TextDocument.Version))
		if doc != nil {
			s.publishDiagnostics(doc)
		}
	}
}

// handleDidClose 处理文档关闭
func (s *Server) handleDidClose(params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("Error parsing didClose params: %v", err)
		return
	}

	docURI := string(p.TextDocument.URI)
	s.docManager.Close(docURI)

	// 关闭时清空诊断
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         p.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// handleDidSave 处理文档保存
func (s *Server) handleDidSave(params json.RawMessage) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("Error parsing didSave params: %v", err)
		return
	}

	docURI := string(p.TextDocument.URI)
	doc := s.docManager.Get(docURI)
	if doc == nil {
		return
	}
	if p.Text != "" {
		doc = s.docManager.Update(docURI, p.Text, doc.Version+1)
	}
	s.publishDiagnostics(doc)
}

// publishDiagnostics 推送一个文档的诊断
func (s *Server) publishDiagnostics(doc *Document) {
	diags := toProtocolDiagnostics(doc.Diagnostics())
	s.logger.Debug("Publishing %d diagnostics for %s", len(diags), doc.URI)

	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Version:     uint32(doc.Version),
		Diagnostics: diags,
	})
}

// sendNotification 发送通知
func (s *Server) sendNotification(method string, params interface{}) {
	s.sendMessage(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

// sendResult 发送成功响应
func (s *Server) sendResult(id json.RawMessage, result interface{}) {
	s.sendMessage(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

// sendError 发送错误响应
func (s *Server) sendError(id json.RawMessage, code int, message string) {
	s.sendMessage(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}
