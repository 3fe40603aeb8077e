package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iabetor/tts-mcp/internal/logger"
)

// Tool 定义工具接口，每个工具必须自描述。
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Definition 是暴露给协议层的工具描述。
type Definition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// UnknownToolError 表示调用了未注册的工具。
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// Registry 管理所有已注册工具，按注册顺序列出。
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry 创建工具注册表。
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register 注册一个工具，同名工具会被替换。
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
	logger.Debugf("[tools] 已注册工具: %s", t.Name())
}

// Get 获取指定名称的工具。
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions 按注册顺序返回所有工具的定义。
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Execute 执行指定工具并返回结果。
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	logger.Debugf("[tools] 执行工具: %s, 参数: %s", name, string(args))
	result, err := t.Execute(ctx, args)
	if err != nil {
		logger.Warnf("[tools] 工具 %s 执行失败: %v", name, err)
		return "", fmt.Errorf("%s: %w", name, err)
	}
	logger.Debugf("[tools] 工具 %s 执行完成", name)
	return result, nil
}

// Count 返回已注册工具数量。
func (r *Registry) Count() int {
	return len(r.tools)
}
