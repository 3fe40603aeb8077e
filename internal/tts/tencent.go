package tts

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	ttsapi "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// TencentEngine 使用腾讯云 TTS 实现语音合成，按性别选择 VoiceType。
type TencentEngine struct {
	client          *ttsapi.Client
	maleVoiceType   int64
	femaleVoiceType int64
}

var _ Engine = (*TencentEngine)(nil)

// NewTencentEngine 创建腾讯云 TTS 客户端。
func NewTencentEngine(cfg config.TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: 腾讯云 TTS 需要 SecretID 和 SecretKey", ErrDependencyMissing)
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := ttsapi.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建腾讯云 TTS 客户端失败: %v", ErrModelInit, err)
	}

	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (voice=%d/%d, region=%s)", cfg.MaleVoiceType, cfg.FemaleVoiceType, cfg.Region)

	return &TencentEngine{
		client:          client,
		maleVoiceType:   cfg.MaleVoiceType,
		femaleVoiceType: cfg.FemaleVoiceType,
	}, nil
}

// Synthesize 将文本合成为单声道 float32 音频样本。腾讯云返回 Base64 编码的 MP3。
func (e *TencentEngine) Synthesize(ctx context.Context, text string, voice voices.Voice) ([]float32, int, error) {
	voiceType := byGender(voice, e.maleVoiceType, e.femaleVoiceType)
	logger.Debugf("[tts] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d", len([]rune(text)), voiceType)

	request := ttsapi.NewTextToVoiceRequest()
	request.Text = common.StringPtr(text)
	request.SessionId = common.StringPtr(fmt.Sprintf("tts-mcp-%d", voiceType))
	request.VoiceType = common.Int64Ptr(voiceType)
	request.Codec = common.StringPtr("mp3")
	// 语速交给后处理，这里保持原速
	request.Speed = common.Float64Ptr(0)
	request.Volume = common.Float64Ptr(5.0)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("腾讯云 TTS 合成失败: %w", err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return nil, 0, fmt.Errorf("腾讯云 TTS: 未返回音频数据")
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, 0, fmt.Errorf("Base64 解码失败: %w", err)
	}
	logger.Debugf("[tts] 腾讯云 TTS: 收到 %d 字节 MP3 数据", len(mp3Data))

	samples, rate, err := decodeMP3(ctx, mp3Data)
	if err != nil {
		return nil, 0, fmt.Errorf("腾讯云 TTS: %w", err)
	}

	logger.Debugf("[tts] 腾讯云 TTS: 生成 %d 个单声道样本，采样率 %d Hz", len(samples), rate)
	return samples, rate, nil
}
