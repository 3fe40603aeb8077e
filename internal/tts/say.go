package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/tts-mcp/internal/audio"
	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// SayEngine 使用 macOS 内置 say 命令实现语音合成，仅在 macOS 上可用。
type SayEngine struct {
	maleVoice   string
	femaleVoice string
}

var _ Engine = (*SayEngine)(nil)

// NewSayEngine 检查 say 和 afconvert 是否存在后创建引擎。
func NewSayEngine(cfg config.SayConfig) (*SayEngine, error) {
	for _, bin := range []string{"say", "afconvert"} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%w: 未找到 %s 程序", ErrDependencyMissing, bin)
		}
	}
	return &SayEngine{maleVoice: cfg.MaleVoice, femaleVoice: cfg.FemaleVoice}, nil
}

// sayArgs 构造 say 命令参数，voice 为空时使用系统默认语音。
func (s *SayEngine) sayArgs(out, text string, voice voices.Voice) []string {
	args := []string{"-o", out}
	if name := byGender(voice, s.maleVoice, s.femaleVoice); name != "" {
		args = append(args, "-v", name)
	}
	return append(args, "--", text)
}

// Synthesize 先用 say 输出 AIFF，再用 afconvert 转为 16-bit WAV 后解析。
func (s *SayEngine) Synthesize(ctx context.Context, text string, voice voices.Voice) ([]float32, int, error) {
	logger.Debugf("[tts] say: 正在合成 %d 个字符", len([]rune(text)))

	tmpFile, err := os.CreateTemp("", "tts-mcp-say-*.aiff")
	if err != nil {
		return nil, 0, fmt.Errorf("say: 创建临时文件失败: %w", err)
	}
	aiffPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(aiffPath)

	wavPath := aiffPath + ".wav"
	defer os.Remove(wavPath)

	cmd := exec.CommandContext(ctx, "say", s.sayArgs(aiffPath, text, voice)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("say 执行失败: %w, stderr: %s", err, stderr.String())
	}

	convertCmd := exec.CommandContext(ctx, "afconvert",
		"-f", "WAVE",
		"-d", "LEI16@24000",
		"-c", "1",
		aiffPath, wavPath,
	)
	var convertStderr bytes.Buffer
	convertCmd.Stderr = &convertStderr
	if err := convertCmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("afconvert 执行失败: %w, stderr: %s", err, convertStderr.String())
	}

	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, 0, fmt.Errorf("say: 读取输出文件失败: %w", err)
	}

	buf, err := audio.DecodeWAV(wavData)
	if err != nil {
		return nil, 0, fmt.Errorf("say: %w", err)
	}
	if buf.Len() == 0 {
		return nil, 0, fmt.Errorf("say: 未收到音频数据")
	}

	logger.Debugf("[tts] say: 生成 %d 个单声道 float32 样本", buf.Len())
	return buf.Samples, buf.SampleRate, nil
}
