// Package pkg 实现 Culebra 项目配置相关功能
package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// 常量定义
const (
	ConfigFileName = "culebra.toml" // 配置文件名
)

// ProjectConfig 项目配置
type ProjectConfig struct {
	Project ProjectInfo `toml:"project"`
	Build   BuildInfo   `toml:"build"`
}

// ProjectInfo 项目信息
type ProjectInfo struct {
	// Name 项目名
	Name string `toml:"name"`

	// Entry 入口源文件，如 main.cb
	Entry string `toml:"entry"`

	// Output 可执行文件输出路径，空则由入口文件名推导
	Output string `toml:"output"`
}

// BuildInfo 编译设置
type BuildInfo struct {
	// Optimize clang -O2 开关，默认开
	Optimize *bool `toml:"optimize"`

	// RuntimeLib runtime.c 路径，空则自动查找
	RuntimeLib string `toml:"runtime_lib"`

	// Clang clang 可执行文件路径，空则取 PATH
	Clang string `toml:"clang"`
}

// Optimized 带默认值读取 optimize 开关
func (c *ProjectConfig) Optimized() bool {
	if c.Build.Optimize == nil {
		return true
	}
	return *c.Build.Optimize
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ProjectConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Save 保存配置到文件
func (c *ProjectConfig) Save(path string) error {
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *ProjectConfig) string {
	var sb strings.Builder

	sb.WriteString("[project]\n")
	sb.WriteString("# 项目名\n")
	sb.WriteString(fmt.Sprintf("name = %q\n\n", c.Project.Name))
	sb.WriteString("# 入口源文件\n")
	sb.WriteString(fmt.Sprintf("entry = %q\n", c.Project.Entry))
	if c.Project.Output != "" {
		sb.WriteString("\n# 可执行文件输出路径\n")
		sb.WriteString(fmt.Sprintf("output = %q\n", c.Project.Output))
	}

	return sb.String()
}

// GenerateDefault 生成默认配置
// dir 是项目目录路径，用于生成默认的项目名
func GenerateDefault(dir string) *ProjectConfig {
	baseName := filepath.Base(dir)
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "my-app"
	}

	return &ProjectConfig{
		Project: ProjectInfo{
			Name:  sanitizeName(baseName),
			Entry: "main.cb",
		},
	}
}

// sanitizeName 清理项目名
func sanitizeName(name string) string {
	// 转换为小写，替换空格和下划线为连字符
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")

	// 移除非法字符
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			result.WriteRune(r)
		}
	}

	s := result.String()
	if s == "" {
		return "my-app"
	}
	return s
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	var dir string
	if info.IsDir() {
		dir = startPath
	} else {
		dir = filepath.Dir(startPath)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	// 向上查找
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// 已到达根目录
			return ""
		}
		dir = parent
	}
}

// GetProjectRoot 获取项目根目录（配置文件所在目录）
func GetProjectRoot(startPath string) string {
	configPath := FindConfigFile(startPath)
	if configPath == "" {
		return ""
	}
	return filepath.Dir(configPath)
}
