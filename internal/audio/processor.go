package audio

import "math"

const (
	fadeInMs    = 20
	fadeOutMs   = 50
	paddingMs   = 100
	pitchRatio  = 0.92
	clipDrive   = 1.2
	clipCeiling = 0.8
	ringFreqHz  = 600.0
	ringBase    = 0.85
	ringDepth   = 0.1
	peakTarget  = 0.95
)

// Options 控制后处理链路中各阶段是否启用。
type Options struct {
	Smoothing  bool    // 淡入淡出 + 尾部静音填充
	Distortion bool    // 机器人音色效果
	Speed      float64 // 播放速度倍率，1.0 为原速
}

// Process 按固定顺序执行后处理：平滑 → 失真效果 → 变速。
// 纯函数，不修改输入，不保留任何状态。
// 输入必须是单声道，多声道数据应在边界处先下混。
func Process(buf Buffer, opts Options) Buffer {
	out := buf.Samples
	if opts.Smoothing {
		out = Smooth(out, buf.SampleRate)
	}
	if opts.Distortion {
		out = Distort(out, buf.SampleRate)
	}
	if opts.Speed > 0 && opts.Speed != 1.0 {
		out = ChangeSpeed(out, opts.Speed)
	}
	if out == nil {
		out = []float32{}
	}
	return Buffer{Samples: out, SampleRate: buf.SampleRate}
}

// Smooth 对音频做 20ms 线性淡入、50ms 线性淡出，并在末尾追加 100ms 静音。
// 音频短于淡入/淡出窗口时跳过对应的淡化。
func Smooth(samples []float32, sampleRate int) []float32 {
	padding := samplesFor(paddingMs, sampleRate)
	out := make([]float32, len(samples), len(samples)+padding)
	copy(out, samples)

	if n := samplesFor(fadeInMs, sampleRate); n > 0 && len(out) >= n {
		for i := 0; i < n; i++ {
			out[i] *= float32(ramp(0, 1, i, n))
		}
	}

	if n := samplesFor(fadeOutMs, sampleRate); n > 0 && len(out) >= n {
		start := len(out) - n
		for i := 0; i < n; i++ {
			out[start+i] *= float32(ramp(1, 0, i, n))
		}
	}

	return append(out, make([]float32, padding)...)
}

// ramp 返回 n 点等距序列 [from, to] 的第 i 个值（首尾都包含）。
func ramp(from, to float64, i, n int) float64 {
	if n == 1 {
		return from
	}
	return from + (to-from)*float64(i)/float64(n-1)
}

// Distort 生成"机器人"音色：
// 降调（0.92 最近邻重采样）→ tanh 软削波 → 600Hz 环形调制 → 与原信号 1:1 混合 → 峰值归一化到 0.95。
func Distort(samples []float32, sampleRate int) []float32 {
	if len(samples) == 0 {
		return []float32{}
	}

	shifted := nearestIndexResample(samples, pitchRatio)

	modulated := make([]float64, len(shifted))
	for i, s := range shifted {
		x := math.Tanh(float64(s)*clipDrive) * clipCeiling
		t := float64(i) / float64(sampleRate)
		carrier := ringBase + ringDepth*math.Sin(2*math.Pi*ringFreqHz*t)
		modulated[i] = x * carrier
	}

	dry := stretchLinear(samples, len(modulated))

	mixed := make([]float64, len(modulated))
	var peak float64
	for i := range mixed {
		mixed[i] = 0.5*dry[i] + 0.5*modulated[i]
		if a := math.Abs(mixed[i]); a > peak {
			peak = a
		}
	}

	scale := 1.0
	if peak > 0 {
		scale = peakTarget / peak
	}

	out := make([]float32, len(mixed))
	for i, v := range mixed {
		out[i] = float32(v * scale)
	}
	return out
}

// stretchLinear 在原信号时间轴上线性插值，得到长度为 n 的信号。
func stretchLinear(samples []float32, n int) []float64 {
	out := make([]float64, n)
	if n == 0 || len(samples) == 0 {
		return out
	}
	last := len(samples) - 1
	for i := 0; i < n; i++ {
		pos := 0.0
		if n > 1 {
			pos = float64(i) * float64(last) / float64(n-1)
		}
		lo := int(pos)
		if lo >= last {
			out[i] = float64(samples[last])
			continue
		}
		frac := pos - float64(lo)
		out[i] = float64(samples[lo])*(1-frac) + float64(samples[lo+1])*frac
	}
	return out
}

// ChangeSpeed 以 factor 为步长做最近邻抽样变速（不做音高补偿）。
// factor > 1 加快（变短），factor < 1 放慢（变长），factor == 1 原样返回。
func ChangeSpeed(samples []float32, factor float64) []float32 {
	if factor == 1.0 || factor <= 0 {
		return samples
	}
	return nearestIndexResample(samples, factor)
}

// nearestIndexResample 选取下标 0, step, 2*step, ... 截断取整后的样本，越界下标丢弃。
func nearestIndexResample(samples []float32, step float64) []float32 {
	n := len(samples)
	out := make([]float32, 0, int(math.Ceil(float64(n)/step)))
	for k := 0; ; k++ {
		pos := float64(k) * step
		if pos >= float64(n) {
			break
		}
		out = append(out, samples[int(pos)])
	}
	return out
}
