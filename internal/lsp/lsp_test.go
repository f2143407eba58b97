package lsp

import (
	"strings"
	"testing"

	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

// ============================================================================
// Document Manager Tests
// ============================================================================

func TestDocumentManager_Open(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	content := "x = 1\nprint(x)\n"
	doc := dm.Open("file:///test.cb", content, 1)

	if doc == nil {
		t.Fatal("expected document to be created")
	}
	if doc.URI != "file:///test.cb" {
		t.Errorf("expected URI 'file:///test.cb', got '%s'", doc.URI)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}
	if doc.Content != content {
		t.Errorf("content mismatch")
	}
}

func TestDocumentManager_OpenExisting(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	dm.Open("file:///test.cb", "x = 1\n", 1)
	doc := dm.Open("file:///test.cb", "x = 2\n", 2)

	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
	if doc.Content != "x = 2\n" {
		t.Errorf("expected updated content, got '%s'", doc.Content)
	}
	if dm.Count() != 1 {
		t.Errorf("expected 1 document, got %d", dm.Count())
	}
}

func TestDocumentManager_Get(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	dm.Open("file:///test.cb", "x = 1\n", 1)

	if dm.Get("file:///test.cb") == nil {
		t.Fatal("expected document to exist")
	}
	if dm.Get("file:///nonexistent.cb") != nil {
		t.Error("expected nil for nonexistent document")
	}
}

func TestDocumentManager_Update(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	dm.Open("file:///test.cb", "x = 1\n", 1)
	doc := dm.Update("file:///test.cb", "y = 2\n", 2)

	if doc == nil {
		t.Fatal("expected updated document")
	}
	if doc.Content != "y = 2\n" {
		t.Errorf("expected new content, got '%s'", doc.Content)
	}

	if dm.Update("file:///nonexistent.cb", "z\n", 1) != nil {
		t.Error("expected nil when updating unknown document")
	}
}

func TestDocumentManager_Close(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	dm.Open("file:///test.cb", "x = 1\n", 1)
	dm.Close("file:///test.cb")

	if dm.Get("file:///test.cb") != nil {
		t.Error("expected document to be removed after close")
	}
	if dm.Count() != 0 {
		t.Errorf("expected 0 documents, got %d", dm.Count())
	}
}

// ============================================================================
// Diagnostics Tests
// ============================================================================

func TestDocument_DiagnosticsClean(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	doc := dm.Open("file:///ok.cb", "x = 1\nif x > 0:\n    print(x)\n", 1)
	if diags := doc.Diagnostics(); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), diags[0])
	}
}

func TestDocument_DiagnosticsSyntaxError(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	doc := dm.Open("file:///bad.cb", "if\n", 1)
	diags := doc.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	if diags[0].Kind != errors.SyntaxError {
		t.Errorf("expected SyntaxError, got %s", diags[0].Kind)
	}
}

func TestDocument_DiagnosticsAfterInvalidate(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	doc := dm.Open("file:///fix.cb", "if\n", 1)
	if len(doc.Diagnostics()) == 0 {
		t.Fatal("expected diagnostics on broken source")
	}

	doc = dm.Update("file:///fix.cb", "x = 1\n", 2)
	if diags := doc.Diagnostics(); len(diags) != 0 {
		t.Errorf("expected diagnostics cleared after fix, got %d", len(diags))
	}
}

func TestDocument_DiagnosticsSkipsHugeFiles(t *testing.T) {
	dm := NewDocumentManager(NewLogger(""))

	// 超过 maxDocumentSize 的损坏文档不应产生诊断
	content := "if\n" + strings.Repeat("# padding\n", maxDocumentSize/10)
	doc := dm.Open("file:///huge.cb", content, 1)
	if diags := doc.Diagnostics(); len(diags) != 0 {
		t.Errorf("expected oversized document to be skipped, got %d diagnostics", len(diags))
	}
}

// ============================================================================
// Protocol Conversion Tests
// ============================================================================

func TestToProtocolDiagnostics(t *testing.T) {
	diags := []*errors.Diagnostic{
		{
			Kind:    errors.SyntaxError,
			Pos:     token.Position{Filename: "test.cb", Line: 3, Column: 5},
			Message: "unexpected token",
		},
	}

	result := toProtocolDiagnostics(diags)
	if len(result) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(result))
	}

	d := result[0]
	if d.Range.Start.Line != 2 {
		t.Errorf("expected 0-based line 2, got %d", d.Range.Start.Line)
	}
	if d.Range.Start.Character != 4 {
		t.Errorf("expected 0-based column 4, got %d", d.Range.Start.Character)
	}
	if d.Source != "culebra" {
		t.Errorf("expected source 'culebra', got '%s'", d.Source)
	}
	if d.Message != "unexpected token" {
		t.Errorf("message mismatch: '%s'", d.Message)
	}
}

func TestToProtocolDiagnostics_InvalidPosition(t *testing.T) {
	diags := []*errors.Diagnostic{
		{Kind: errors.SyntaxError, Message: "oops"},
	}

	result := toProtocolDiagnostics(diags)
	if len(result) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(result))
	}
	if result[0].Range.Start.Line != 0 || result[0].Range.Start.Character != 0 {
		t.Errorf("expected position clamped to file start, got %v", result[0].Range.Start)
	}
}

// ============================================================================
// URI to Path Tests
// ============================================================================

func TestUriToPath(t *testing.T) {
	path := uriToPath("file:///home/user/test.cb")
	if strings.HasPrefix(path, "file://") {
		t.Error("uriToPath should remove file:// prefix")
	}

	// 解析失败时原样返回
	raw := "not a uri"
	if got := uriToPath(raw); got != raw {
		t.Errorf("expected invalid URI returned unchanged, got '%s'", got)
	}
}
