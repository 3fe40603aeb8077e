package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 是 tts-mcp 的顶层配置结构。
type Config struct {
	TTS      TTSConfig      `yaml:"tts"`
	Speech   SpeechConfig   `yaml:"speech"`
	Playback PlaybackConfig `yaml:"playback"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// TTSConfig 语音合成配置。
type TTSConfig struct {
	// Engine 合成后端: kitten（内置模型）, piper, say, edge, tencent
	Engine  string        `yaml:"engine"`
	Kitten  KittenConfig  `yaml:"kitten"`
	Piper   PiperConfig   `yaml:"piper"`
	Say     SayConfig     `yaml:"say"`
	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
}

// KittenConfig KittenTTS（sherpa-onnx）模型配置。
type KittenConfig struct {
	// ModelDir 包含 model.fp16.onnx、voices.bin、tokens.txt、espeak-ng-data 的目录
	ModelDir   string `yaml:"model_dir"`
	Model      string `yaml:"model"`
	NumThreads int    `yaml:"num_threads"`
	Provider   string `yaml:"provider"`
}

// PiperConfig Piper TTS 配置，按性别选择模型。
type PiperConfig struct {
	MaleModel   string `yaml:"male_model"`
	FemaleModel string `yaml:"female_model"`
}

// SayConfig macOS say 配置。
type SayConfig struct {
	MaleVoice   string `yaml:"male_voice"`
	FemaleVoice string `yaml:"female_voice"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	MaleVoice   string `yaml:"male_voice"`
	FemaleVoice string `yaml:"female_voice"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID        string `yaml:"secret_id"`
	SecretKey       string `yaml:"secret_key"`
	Region          string `yaml:"region"`
	MaleVoiceType   int64  `yaml:"male_voice_type"`
	FemaleVoiceType int64  `yaml:"female_voice_type"`
}

// SpeechConfig speak 工具的默认参数。
type SpeechConfig struct {
	MaxWords     int     `yaml:"max_words"`
	DefaultVoice string  `yaml:"default_voice"`
	DefaultSpeed float64 `yaml:"default_speed"`
	// Smoothing 为 nil 时默认开启。
	Smoothing *bool `yaml:"smoothing"`
}

// SmoothingEnabled 返回是否启用淡入淡出平滑。
func (s SpeechConfig) SmoothingEnabled() bool {
	return s.Smoothing == nil || *s.Smoothing
}

// PlaybackConfig 播放配置。
type PlaybackConfig struct {
	// Backend: command（临时 WAV + 系统播放器）或 device（malgo 直接输出）
	Backend string `yaml:"backend"`
	// Players 自定义播放器命令，为空则按平台使用内置列表
	Players []string `yaml:"players"`
	// TempDir 临时 WAV 文件目录，为空则使用系统临时目录
	TempDir string `yaml:"temp_dir"`
}

// HistoryConfig 播报记录配置。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// ServerConfig MCP 服务配置。
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 先加载工作目录下的 .env（不存在时忽略），再展开 ${VAR_NAME} 形式的环境变量。
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// LoadOrDefault 与 Load 相同，但配置文件不存在时返回默认配置。
// 作为 MCP 子进程启动时通常没有配置文件。
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
		setDefaults(cfg)
		return cfg, nil
	}
	return nil, err
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	home, _ := os.UserHomeDir()
	dataDir := "./.tts-mcp"
	if home != "" {
		dataDir = filepath.Join(home, ".tts-mcp")
	}

	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "kitten"
	}
	if cfg.TTS.Kitten.ModelDir == "" {
		cfg.TTS.Kitten.ModelDir = filepath.Join(dataDir, "models", "kitten-nano-en-v0_1-fp16")
	}
	cfg.TTS.Kitten.ModelDir = expandHome(cfg.TTS.Kitten.ModelDir, home)
	if cfg.TTS.Kitten.Model == "" {
		cfg.TTS.Kitten.Model = "model.fp16.onnx"
	}
	if cfg.TTS.Kitten.NumThreads == 0 {
		cfg.TTS.Kitten.NumThreads = 2
	}
	if cfg.TTS.Kitten.Provider == "" {
		cfg.TTS.Kitten.Provider = "cpu"
	}
	if cfg.TTS.Edge.MaleVoice == "" {
		cfg.TTS.Edge.MaleVoice = "en-US-GuyNeural"
	}
	if cfg.TTS.Edge.FemaleVoice == "" {
		cfg.TTS.Edge.FemaleVoice = "en-US-JennyNeural"
	}
	if cfg.TTS.Say.MaleVoice == "" {
		cfg.TTS.Say.MaleVoice = "Daniel"
	}
	if cfg.TTS.Say.FemaleVoice == "" {
		cfg.TTS.Say.FemaleVoice = "Samantha"
	}
	if cfg.TTS.Tencent.Region == "" {
		cfg.TTS.Tencent.Region = "ap-guangzhou"
	}
	if cfg.TTS.Tencent.MaleVoiceType == 0 {
		cfg.TTS.Tencent.MaleVoiceType = 501008 // WeJames，英文男声
	}
	if cfg.TTS.Tencent.FemaleVoiceType == 0 {
		cfg.TTS.Tencent.FemaleVoiceType = 501009 // WeWinny，英文女声
	}

	if cfg.Speech.MaxWords == 0 {
		cfg.Speech.MaxWords = 100
	}
	if cfg.Speech.DefaultVoice == "" {
		cfg.Speech.DefaultVoice = "expr-voice-2-f"
	}
	if cfg.Speech.DefaultSpeed == 0 {
		cfg.Speech.DefaultSpeed = 1.3
	}

	if cfg.Playback.Backend == "" {
		cfg.Playback.Backend = "command"
	}

	if cfg.History.DBPath == "" {
		cfg.History.DBPath = filepath.Join(dataDir, "history.db")
	}
	cfg.History.DBPath = expandHome(cfg.History.DBPath, home)

	if cfg.Server.Name == "" {
		cfg.Server.Name = "tts-mcp"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "0.1.0"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
		if os.Getenv("TTS_MCP_DEBUG") != "" {
			cfg.Log.Level = "debug"
		}
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.TTS.Tencent.SecretID = strings.TrimSpace(cfg.TTS.Tencent.SecretID)
	cfg.TTS.Tencent.SecretKey = strings.TrimSpace(cfg.TTS.Tencent.SecretKey)
}

// expandHome 将 ~/ 前缀替换为用户主目录，Go 不会自动展开 ~。
func expandHome(path, home string) string {
	if home != "" && strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
