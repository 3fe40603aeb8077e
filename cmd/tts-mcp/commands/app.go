package commands

import (
	"fmt"
	"strings"

	"github.com/iabetor/tts-mcp/internal/audio"
	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/history"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/speech"
	"github.com/iabetor/tts-mcp/internal/tools"
	"github.com/iabetor/tts-mcp/internal/tts"
)

// app 持有一次进程运行所需的全部组件，进程内只构造一个。
type app struct {
	cfg     *config.Config
	manager *speech.Manager
	player  audio.Player
	store   *history.Store
}

// newApp 按配置装配组件。history 打开失败时只记录警告，不影响播报。
func newApp(cfg *config.Config) (*app, error) {
	loader, err := tts.NewLoader(cfg.TTS)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.player = newPlayer(cfg.Playback)

	opts := speech.ConfigOptions(cfg.Speech)
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			logger.Warnf("[main] 打开播报记录失败，将不记录: %v", err)
		} else {
			a.store = store
			opts = append(opts, speech.WithRecorder(store))
		}
	}

	opts = append(opts, speech.WithStateListener(logEngineState))
	a.manager = speech.New(loader, a.player, opts...)
	return a, nil
}

// registry 构造暴露给 MCP 的工具集合。
func (a *app) registry() *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(tools.NewSpeakTool(a.manager))
	reg.Register(tools.NewListVoicesTool(a.manager.DefaultVoice()))
	if a.store != nil {
		reg.Register(tools.NewHistoryTool(a.store))
	}
	return reg
}

// close 释放模型、播放器和数据库。
func (a *app) close() {
	a.manager.Cleanup()
	if a.player != nil {
		a.player.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("[main] 关闭数据库失败: %v", err)
		}
	}
}

// logEngineState 记录引擎状态变化，加载失败提升为警告。
func logEngineState(from, to speech.State) {
	if to == speech.StateFailed {
		logger.Warnf("[main] TTS 引擎加载失败 (%s → %s)", from, to)
		return
	}
	logger.Infof("[main] TTS 引擎状态 %s → %s", from, to)
}

// newPlayer 根据配置选择播放后端。device 后端初始化失败时回退到 command。
func newPlayer(cfg config.PlaybackConfig) audio.Player {
	if strings.EqualFold(cfg.Backend, "device") {
		p, err := audio.NewDevicePlayer()
		if err == nil {
			logger.Infof("[main] 使用音频设备直接播放")
			return p
		}
		logger.Warnf("[main] 音频设备不可用，改用系统播放器: %v", err)
	}

	p := audio.NewCommandPlayer(
		audio.WithLinuxPlayers(cfg.Players),
		audio.WithTempDir(cfg.TempDir),
	)
	if !p.Available() {
		logger.Warnf("[main] 未找到系统音频播放器，播报将失败")
	}
	return p
}

// validateBackend 检查 playback.backend 的取值。
func validateBackend(cfg config.PlaybackConfig) error {
	switch strings.ToLower(cfg.Backend) {
	case "", "command", "device":
		return nil
	default:
		return fmt.Errorf("不支持的播放后端: %s（可选: command, device）", cfg.Backend)
	}
}
