package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/culebra-lang/culebra/internal/errors"
)

// toProtocolDiagnostics 把解析诊断转换为 LSP 诊断
//
// 内部位置从 1 开始，LSP 从 0 开始。无效位置归到文件开头。
func toProtocolDiagnostics(diags []*errors.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diags))
	for _, diag := range diags {
		line := uint32(0)
		col := uint32(0)
		if diag.Pos.Line > 0 {
			line = uint32(diag.Pos.Line - 1)
		}
		if diag.Pos.Column > 0 {
			col = uint32(diag.Pos.Column - 1)
		}

		result = append(result, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			},
			Severity: protocol.DiagnosticSeverityError,
			Code:     diag.Kind.String(),
			Source:   "culebra",
			Message:  diag.Message,
		})
	}
	return result
}
