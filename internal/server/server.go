// Package server 把工具注册表挂到 MCP stdio 服务上。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/tools"
)

// Server 是 tts-mcp 的 MCP 服务端。
type Server struct {
	mcp      *mcpserver.MCPServer
	registry *tools.Registry
}

// New 创建服务端并注册 registry 中的全部工具。
func New(cfg config.ServerConfig, registry *tools.Registry) *Server {
	s := &Server{
		mcp: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		registry: registry,
	}

	for _, def := range registry.Definitions() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, def.Parameters), s.handle)
	}
	logger.Infof("[server] 已注册 %d 个工具 (%s %s)", registry.Count(), cfg.Name, cfg.Version)
	return s
}

// handle 把 MCP 调用转交给工具注册表。工具的业务失败以文本返回，
// 只有参数无法解析等异常才标记为错误结果。
func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	out, err := s.registry.Execute(ctx, req.Params.Name, args)
	if err != nil {
		var unknown *tools.UnknownToolError
		if errors.As(err, &unknown) {
			return mcp.NewToolResultText(unknown.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
