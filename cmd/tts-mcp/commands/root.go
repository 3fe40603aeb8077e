package commands

import (
	"github.com/spf13/cobra"

	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tts-mcp",
	Short: "Text-to-speech tool server over MCP",
	Long: `tts-mcp exposes a "speak" tool over the Model Context Protocol (stdio).

Text is synthesized by the configured engine (KittenTTS by default),
smoothed, optionally distorted, sped up and played through the system
audio output. Without a subcommand it runs the MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/tts-mcp.yaml", "配置文件路径（不存在时使用默认配置）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出 debug 日志到 stderr")

	rootCmd.AddCommand(serveCmd, sayCmd, voicesCmd, historyCmd)
}

// Execute 运行根命令。
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

// loadConfig 读取配置并初始化日志。
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		return nil, err
	}
	return cfg, nil
}
