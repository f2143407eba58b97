package interpreter

// ============================================================================
// 作用域环境
// ============================================================================
//
// 环境是一条帧链。最底层是内置函数帧，其上是全局帧；每次用户
// 函数调用在函数捕获的定义环境之上压入一个新帧（词法作用域）。
//
// if / while / for 块不引入新作用域，块内赋值落在所在函数或
// 全局作用域。
//
// 读取沿链从内向外查找；写入时若名字已存在于某个外层帧则更新
// 该帧，否则绑定到最内层帧。
//
// ============================================================================

// Environment 一层名字绑定帧
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment 创建没有父帧的环境
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// NewChild 创建以 e 为父帧的环境
func (e *Environment) NewChild() *Environment {
	return &Environment{values: make(map[string]Value), parent: e}
}

// Has 沿链判断名字是否已绑定
func (e *Environment) Has(name string) bool {
	if _, ok := e.values[name]; ok {
		return true
	}
	return e.parent != nil && e.parent.Has(name)
}

// Get 沿链查找名字
func (e *Environment) Get(name string) (Value, bool) {
	if v, ok := e.values[name]; ok {
		return v, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Assign 写入绑定
//
// 名字已存在于当前帧则就地更新；存在于外层帧则更新外层；
// 否则绑定到当前帧。
func (e *Environment) Assign(name string, value Value) {
	if _, ok := e.values[name]; ok {
		e.values[name] = value
		return
	}
	if e.parent != nil && e.parent.Has(name) {
		e.parent.Assign(name, value)
		return
	}
	e.values[name] = value
}

// Define 强制绑定到当前帧，用于函数参数
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Names 收集链上所有可见的名字，用于 NameError 的建议
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.parent {
		for name := range env.values {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
