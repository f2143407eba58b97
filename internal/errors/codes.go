// Package errors 提供 Culebra 语言的错误处理系统
package errors

// ============================================================================
// 错误种类
// ============================================================================
//
// Culebra 的错误分类是扁平的：每个错误属于一个固定的 Kind，
// 携带源代码位置（如适用）。没有用户级异常，错误一律终止当前管线。
//
// ============================================================================

// Kind 错误种类
type Kind int

const (
	SyntaxError       Kind = iota // 词法/语法错误
	IndentationError              // 缩进不匹配
	NameError                     // 未定义的名字
	TypeError                     // 类型不兼容
	ValueError                    // 值域错误（如 int() 解析失败）
	IndexError                    // 下标越界
	KeyError                      // 映射键不存在
	AttributeError                // 值类型上不存在的方法
	FileNotFoundError             // 文件不存在
	CompileError                  // AOT 后端无法静态定型
)

var kindNames = map[Kind]string{
	SyntaxError:       "SyntaxError",
	IndentationError:  "IndentationError",
	NameError:         "NameError",
	TypeError:         "TypeError",
	ValueError:        "ValueError",
	IndexError:        "IndexError",
	KeyError:          "KeyError",
	AttributeError:    "AttributeError",
	FileNotFoundError: "FileNotFoundError",
	CompileError:      "CompileError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Error"
}
