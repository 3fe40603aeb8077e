package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// EdgeEngine 使用微软 Edge TTS 实现语音合成，
// 通过 edge-tts-go 获取 MP3 音频，再用 go-mp3 解码为 PCM。
type EdgeEngine struct {
	maleVoice   string
	femaleVoice string
}

var _ Engine = (*EdgeEngine)(nil)

// NewEdgeEngine 创建 Edge TTS 引擎。
func NewEdgeEngine(cfg config.EdgeConfig) *EdgeEngine {
	return &EdgeEngine{maleVoice: cfg.MaleVoice, femaleVoice: cfg.FemaleVoice}
}

// Synthesize 将文本合成为单声道 float32 音频样本。
func (e *EdgeEngine) Synthesize(ctx context.Context, text string, voice voices.Voice) ([]float32, int, error) {
	name := byGender(voice, e.maleVoice, e.femaleVoice)
	logger.Debugf("[tts] edge-tts: 正在合成 %d 个字符，语音=%s", len([]rune(text)), name)

	comm, err := edge.NewCommunicate(text, edge.WithVoice(name))
	if err != nil {
		return nil, 0, fmt.Errorf("edge-tts 创建实例失败: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, 0, fmt.Errorf("edge-tts 开始流式合成失败: %w", err)
	}

	// type=="audio" 的消息携带 MP3 数据
	var mp3Buf bytes.Buffer
	for msg := range ch {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}

	if mp3Buf.Len() == 0 {
		return nil, 0, fmt.Errorf("edge-tts: 未收到音频数据")
	}
	logger.Debugf("[tts] edge-tts: 收到 %d 字节 MP3 数据", mp3Buf.Len())

	samples, rate, err := decodeMP3(ctx, mp3Buf.Bytes())
	if err != nil {
		return nil, 0, fmt.Errorf("edge-tts: %w", err)
	}

	logger.Debugf("[tts] edge-tts: 生成 %d 个单声道样本，采样率 %d Hz", len(samples), rate)
	return samples, rate, nil
}
