package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/tts-mcp/internal/logger"
)

// Outcome 描述一次播放的结果。播放失败不是 Go 错误，而是带消息的结果。
type Outcome struct {
	Success bool
	Message string
}

// Succeeded 构造成功结果。
func Succeeded(msg string) Outcome { return Outcome{Success: true, Message: msg} }

// Failed 构造失败结果。
func Failed(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// Player 是播放后端：阻塞直到播放结束。
type Player interface {
	Play(ctx context.Context, buf Buffer) Outcome
	Close()
}

// DevicePlayer 使用 malgo (miniaudio) 直接写入默认扬声器。
type DevicePlayer struct {
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
	closed bool
}

// NewDevicePlayer 初始化音频上下文。没有可用音频后端时返回错误。
func NewDevicePlayer() (*DevicePlayer, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}
	return &DevicePlayer{ctx: ctx}, nil
}

// Play 通过默认扬声器播放单声道音频，阻塞直到播完或 ctx 被取消。
func (p *DevicePlayer) Play(ctx context.Context, buf Buffer) Outcome {
	if len(buf.Samples) == 0 {
		return Succeeded("Nothing to play")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Failed("Audio device player is closed")
	}
	allocated := p.ctx
	p.mu.Unlock()

	pcmBytes := Float32ToBytes(buf.Samples)
	pos := 0
	done := make(chan struct{}, 1)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(buf.SampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			need := int(frameCount) * 2
			if need > len(output) {
				need = len(output)
			}
			n := 0
			if pos < len(pcmBytes) {
				n = copy(output[:need], pcmBytes[pos:])
				pos += n
			}
			for i := n; i < need; i++ {
				output[i] = 0
			}
			if pos >= len(pcmBytes) {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		},
	}

	device, err := malgo.InitDevice(allocated.Context, deviceConfig, callbacks)
	if err != nil {
		return Failed("Failed to open audio device: %v", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return Failed("Failed to start audio device: %v", err)
	}
	defer device.Stop()

	select {
	case <-ctx.Done():
		logger.Infof("[audio] 播放被取消")
		return Failed("Playback cancelled: %v", ctx.Err())
	case <-done:
		logger.Debugf("[audio] 播放完成，%d 个样本", len(buf.Samples))
		return Succeeded("Audio played successfully on audio device")
	}
}

// Close 释放音频上下文，可重复调用。
func (p *DevicePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
