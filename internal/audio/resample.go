package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ResampleTo 将单声道音频转换到目标采样率。采样率相同时原样返回。
// 网络引擎（Edge 等）输出的采样率与处理链的 24kHz 不一致，先统一再做后处理。
func ResampleTo(buf Buffer, rate int) (Buffer, error) {
	if rate <= 0 {
		return Buffer{}, fmt.Errorf("无效的目标采样率: %d", rate)
	}
	if buf.SampleRate == rate || len(buf.Samples) == 0 {
		return Buffer{Samples: buf.Samples, SampleRate: rate}, nil
	}
	if buf.SampleRate <= 0 {
		return Buffer{}, fmt.Errorf("无效的源采样率: %d", buf.SampleRate)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Buffer{}, fmt.Errorf("创建重采样器失败: %w", err)
	}

	input := make([]float64, len(buf.Samples))
	for i, s := range buf.Samples {
		input[i] = float64(s)
	}

	output, err := rs.Process(input)
	if err != nil {
		return Buffer{}, fmt.Errorf("重采样失败: %w", err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(s)
	}
	return Buffer{Samples: out, SampleRate: rate}, nil
}
