package audio

import "time"

// SampleRate 是内置模型输出及整条处理链路使用的固定采样率。
const SampleRate = 24000

// Buffer 是单声道 float32 PCM 音频，采样率始终随数据一起传递。
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// NewBuffer 创建指定采样率的音频缓冲。
func NewBuffer(samples []float32, sampleRate int) Buffer {
	return Buffer{Samples: samples, SampleRate: sampleRate}
}

// Len 返回样本数。
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration 返回音频时长。
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// samplesFor 返回 ms 毫秒对应的样本数。
func samplesFor(ms, sampleRate int) int {
	return sampleRate * ms / 1000
}
