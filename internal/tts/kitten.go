package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// KittenEngine 封装 sherpa-onnx 离线 KittenTTS 模型。
// 模型句柄不是并发安全的，调用方需保证同一时刻只有一个 Synthesize。
type KittenEngine struct {
	tts *sherpa.OfflineTts
}

var _ Engine = (*KittenEngine)(nil)

// kittenFiles 返回模型目录下需要存在的文件。
func kittenFiles(cfg config.KittenConfig) (model, voicesBin, tokens, dataDir string) {
	dir := cfg.ModelDir
	return filepath.Join(dir, cfg.Model),
		filepath.Join(dir, "voices.bin"),
		filepath.Join(dir, "tokens.txt"),
		filepath.Join(dir, "espeak-ng-data")
}

// checkKittenFiles 在加载模型之前确认文件齐全，缺失时返回 ErrDependencyMissing。
func checkKittenFiles(cfg config.KittenConfig) error {
	model, voicesBin, tokens, dataDir := kittenFiles(cfg)
	for _, p := range []string{model, voicesBin, tokens, dataDir} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: KittenTTS 模型文件缺失 %s", ErrDependencyMissing, p)
		}
	}
	return nil
}

// NewKittenEngine 加载 KittenTTS 模型，耗时可能达数秒。
func NewKittenEngine(cfg config.KittenConfig) (*KittenEngine, error) {
	if err := checkKittenFiles(cfg); err != nil {
		return nil, err
	}

	model, voicesBin, tokens, dataDir := kittenFiles(cfg)

	ttsConfig := sherpa.OfflineTtsConfig{}
	ttsConfig.Model.Kitten.Model = model
	ttsConfig.Model.Kitten.Voices = voicesBin
	ttsConfig.Model.Kitten.Tokens = tokens
	ttsConfig.Model.Kitten.DataDir = dataDir
	ttsConfig.Model.Kitten.LengthScale = 1.0
	ttsConfig.Model.NumThreads = cfg.NumThreads
	ttsConfig.Model.Provider = cfg.Provider
	ttsConfig.MaxNumSentences = 1

	tts := sherpa.NewOfflineTts(&ttsConfig)
	if tts == nil {
		return nil, fmt.Errorf("%w: 创建 KittenTTS 失败，模型路径: %s", ErrModelInit, cfg.ModelDir)
	}

	logger.Infof("[tts] KittenTTS 已加载 (model=%s, threads=%d, provider=%s)", model, cfg.NumThreads, cfg.Provider)
	return &KittenEngine{tts: tts}, nil
}

// Synthesize 以原速合成，语速由后处理统一调整。
func (k *KittenEngine) Synthesize(_ context.Context, text string, voice voices.Voice) ([]float32, int, error) {
	if k.tts == nil {
		return nil, 0, fmt.Errorf("KittenTTS 已关闭")
	}
	sid, err := voices.SpeakerID(voice.ID)
	if err != nil {
		return nil, 0, err
	}

	logger.Debugf("[tts] kitten: 正在合成 %d 个字符，音色=%s(sid=%d)", len([]rune(text)), voice.ID, sid)

	generated := k.tts.Generate(text, sid, 1.0)
	if generated == nil || len(generated.Samples) == 0 {
		return nil, 0, fmt.Errorf("KittenTTS 未生成音频")
	}

	logger.Debugf("[tts] kitten: 生成 %d 个样本，采样率 %d Hz", len(generated.Samples), generated.SampleRate)
	return generated.Samples, generated.SampleRate, nil
}

// Close 释放底层 sherpa-onnx 资源。
func (k *KittenEngine) Close() {
	if k.tts != nil {
		sherpa.DeleteOfflineTts(k.tts)
		k.tts = nil
		logger.Info("[tts] KittenTTS 已释放")
	}
}
