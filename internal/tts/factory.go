package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/iabetor/tts-mcp/internal/config"
)

// Engines 列出支持的合成后端名称。
var Engines = []string{"kitten", "piper", "say", "edge", "tencent"}

// NewLoader 根据配置返回对应后端的 Loader。引擎名未知时立即返回错误，
// 依赖缺失等问题推迟到 Loader 被调用时才报告。
func NewLoader(cfg config.TTSConfig) (Loader, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "kitten":
		return func(context.Context) (Engine, error) {
			return NewKittenEngine(cfg.Kitten)
		}, nil
	case "piper":
		return func(context.Context) (Engine, error) {
			return NewPiperEngine(cfg.Piper)
		}, nil
	case "say":
		return func(context.Context) (Engine, error) {
			return NewSayEngine(cfg.Say)
		}, nil
	case "edge":
		return func(context.Context) (Engine, error) {
			return NewEdgeEngine(cfg.Edge), nil
		}, nil
	case "tencent":
		return func(context.Context) (Engine, error) {
			return NewTencentEngine(cfg.Tencent)
		}, nil
	default:
		return nil, fmt.Errorf("不支持的 TTS 引擎: %s（可选: %s）", cfg.Engine, strings.Join(Engines, ", "))
	}
}
