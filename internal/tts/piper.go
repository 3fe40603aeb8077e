package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/iabetor/tts-mcp/internal/audio"
	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// piperSampleRate 是 piper 输出的固定采样率。
const piperSampleRate = 22050

// PiperEngine 使用 piper CLI 子进程实现语音合成，按音色性别选择模型。
type PiperEngine struct {
	bin         string
	maleModel   string
	femaleModel string
}

var _ Engine = (*PiperEngine)(nil)

// NewPiperEngine 检查 piper 程序和模型配置后创建引擎。
func NewPiperEngine(cfg config.PiperConfig) (*PiperEngine, error) {
	bin, err := exec.LookPath("piper")
	if err != nil {
		return nil, fmt.Errorf("%w: 未找到 piper 程序", ErrDependencyMissing)
	}
	return newPiperEngine(bin, cfg)
}

func newPiperEngine(bin string, cfg config.PiperConfig) (*PiperEngine, error) {
	male, female := cfg.MaleModel, cfg.FemaleModel
	if male == "" && female == "" {
		return nil, fmt.Errorf("%w: piper 未配置模型", ErrDependencyMissing)
	}
	// 只配置一个模型时两种性别共用
	if male == "" {
		male = female
	}
	if female == "" {
		female = male
	}
	return &PiperEngine{bin: bin, maleModel: male, femaleModel: female}, nil
}

func (p *PiperEngine) modelFor(v voices.Voice) string {
	return byGender(v, p.maleModel, p.femaleModel)
}

// Synthesize 使用 piper CLI 将文本转换为单声道 float32 音频样本。
// piper 输出 signed 16-bit LE 单声道 PCM，采样率 22050 Hz。
func (p *PiperEngine) Synthesize(ctx context.Context, text string, voice voices.Voice) ([]float32, int, error) {
	model := p.modelFor(voice)
	logger.Debugf("[tts] piper: 正在合成 %d 个字符，模型=%s", len([]rune(text)), model)

	cmd := exec.CommandContext(ctx, p.bin, "--model", model, "--output-raw")
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			logger.Warnf("[tts] piper stderr: %s", msg)
		}
		return nil, 0, fmt.Errorf("piper 执行失败: %w", err)
	}

	if stdout.Len() == 0 {
		return nil, 0, fmt.Errorf("piper: 未收到音频数据")
	}

	samples := audio.BytesToFloat32(stdout.Bytes())
	logger.Debugf("[tts] piper: 生成 %d 个单声道 float32 样本", len(samples))

	return samples, piperSampleRate, nil
}
