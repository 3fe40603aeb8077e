// tts-mcp 通过 MCP stdio 协议提供本地语音播报工具。
//
// 用法:
//
//	tts-mcp [serve]                 作为 MCP 服务运行（默认）
//	tts-mcp say <text...>           直接播报一段文本
//	tts-mcp voices                  列出音色
//	tts-mcp history                 查看播报记录
package main

import (
	"fmt"
	"os"

	"github.com/iabetor/tts-mcp/cmd/tts-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
