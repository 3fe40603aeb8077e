package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validateBackend(cfg.Playback); err != nil {
		return err
	}

	logger.Infof("[main] tts-mcp 启动中 (engine=%s, log_level=%s)", cfg.TTS.Engine, cfg.Log.Level)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, a.registry())

	g, gctx := errgroup.WithContext(ctx)

	// 预热模型，失败不退出，首次 speak 时会再试
	g.Go(func() error {
		if err := a.manager.Initialize(gctx); err != nil {
			logger.Warnf("[main] 预加载 TTS 引擎失败: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		return srv.ServeStdio(gctx, os.Stdin, os.Stdout)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Infof("[main] tts-mcp 已停止")
	return nil
}
