package audio

import (
	"math"
	"math/rand"
	"testing"
)

func constant(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestSmooth_SilenceStaysSilent(t *testing.T) {
	in := make([]float32, 12000)
	out := Smooth(in, SampleRate)

	if len(out) != 12000+2400 {
		t.Fatalf("expected %d samples, got %d", 12000+2400, len(out))
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d: expected 0, got %f", i, s)
		}
	}
}

func TestSmooth_FadeRamps(t *testing.T) {
	in := constant(SampleRate, 1.0)
	out := Smooth(in, SampleRate)

	if len(out) != 26400 {
		t.Fatalf("expected 26400 samples, got %d", len(out))
	}

	// 前 480 个样本从 0 线性升到 1
	if out[0] != 0 {
		t.Errorf("first sample should be 0, got %f", out[0])
	}
	if !approx(float64(out[479]), 1.0, 1e-6) {
		t.Errorf("sample 479 should be 1, got %f", out[479])
	}
	for i := 1; i < 480; i++ {
		if out[i] < out[i-1] {
			t.Fatalf("fade-in not monotonic at %d", i)
		}
	}
	if !approx(float64(out[240]), 240.0/479.0, 1e-6) {
		t.Errorf("sample 240: got %f, want %f", out[240], 240.0/479.0)
	}

	// 中间保持原值
	if out[12000] != 1.0 {
		t.Errorf("middle sample changed: %f", out[12000])
	}

	// 原始部分的最后 1200 个样本从 1 线性降到 0
	start := SampleRate - 1200
	if !approx(float64(out[start]), 1.0, 1e-6) {
		t.Errorf("fade-out start should be 1, got %f", out[start])
	}
	if out[SampleRate-1] != 0 {
		t.Errorf("last original sample should be 0, got %f", out[SampleRate-1])
	}
	for i := start + 1; i < SampleRate; i++ {
		if out[i] > out[i-1] {
			t.Fatalf("fade-out not monotonic at %d", i)
		}
	}

	// 追加的 100ms 静音
	for i := SampleRate; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("padding sample %d should be 0, got %f", i, out[i])
		}
	}
}

func TestSmooth_ShortBufferSkipsFades(t *testing.T) {
	in := constant(100, 0.5)
	out := Smooth(in, SampleRate)

	if len(out) != 100+2400 {
		t.Fatalf("expected %d samples, got %d", 2500, len(out))
	}
	for i := 0; i < 100; i++ {
		if out[i] != 0.5 {
			t.Fatalf("sample %d should be unchanged, got %f", i, out[i])
		}
	}
}

func TestSmooth_OnlyFadeInWhenBetweenWindows(t *testing.T) {
	// 长度介于淡入窗口(480)和淡出窗口(1200)之间：只做淡入
	in := constant(800, 1.0)
	out := Smooth(in, SampleRate)

	if out[0] != 0 {
		t.Errorf("fade-in should be applied, got %f", out[0])
	}
	if out[799] != 1.0 {
		t.Errorf("fade-out should be skipped, got %f", out[799])
	}
}

func TestSmooth_DoesNotMutateInput(t *testing.T) {
	in := constant(SampleRate, 1.0)
	_ = Smooth(in, SampleRate)
	if in[0] != 1.0 || in[SampleRate-1] != 1.0 {
		t.Fatal("Smooth must not modify its input")
	}
}

func TestSmooth_Empty(t *testing.T) {
	out := Smooth(nil, SampleRate)
	if len(out) != 2400 {
		t.Fatalf("expected only padding (2400), got %d", len(out))
	}
}

func TestChangeSpeed(t *testing.T) {
	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(i)
	}

	tests := []struct {
		factor float64
		want   int
	}{
		{2.0, 500},
		{1.3, 770},
		{0.5, 2000},
	}
	for _, tt := range tests {
		out := ChangeSpeed(in, tt.factor)
		if len(out) != tt.want {
			t.Errorf("factor %.1f: expected %d samples, got %d", tt.factor, tt.want, len(out))
		}
	}

	fast := ChangeSpeed(in, 2.0)
	if fast[1] != 2 || fast[499] != 998 {
		t.Errorf("unexpected nearest-index picks: %v %v", fast[1], fast[499])
	}
	slow := ChangeSpeed(in, 0.5)
	if slow[0] != 0 || slow[1] != 0 || slow[2] != 1 {
		t.Errorf("slow-down should repeat samples: %v", slow[:3])
	}
}

func TestChangeSpeed_UnitIsNoop(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := ChangeSpeed(in, 1.0)
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed", i)
		}
	}
}

func TestDistort_LengthAndPeak(t *testing.T) {
	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(0.6 * math.Sin(2*math.Pi*220*float64(i)/SampleRate))
	}

	out := Distort(in, SampleRate)
	if len(out) != 1087 {
		t.Fatalf("expected 1087 samples after 0.92 pitch shift, got %d", len(out))
	}

	var peak float64
	for _, s := range out {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if !approx(peak, 0.95, 1e-5) {
		t.Errorf("expected peak 0.95, got %f", peak)
	}
}

func TestDistort_PeakBoundRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(5000)
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(rng.Float64()*4 - 2)
		}
		in[rng.Intn(n)] = 0.5 // 保证非静音

		out := Distort(in, SampleRate)
		for i, s := range out {
			if math.Abs(float64(s)) > 0.95+1e-6 {
				t.Fatalf("round %d sample %d exceeds 0.95: %f", round, i, s)
			}
		}
	}
}

func TestDistort_Silence(t *testing.T) {
	out := Distort(make([]float32, 500), SampleRate)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d should stay 0, got %f", i, s)
		}
	}
}

func TestDistort_Deterministic(t *testing.T) {
	in := constant(2000, 0.3)
	a := Distort(in, SampleRate)
	b := Distort(in, SampleRate)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at %d", i)
		}
	}
}

func TestDistort_Empty(t *testing.T) {
	if out := Distort(nil, SampleRate); len(out) != 0 {
		t.Fatalf("expected empty output, got %d samples", len(out))
	}
}

func TestProcess_HelloWorldLength(t *testing.T) {
	in := NewBuffer(constant(SampleRate, 0.5), SampleRate)
	out := Process(in, Options{Smoothing: true, Speed: 1.0})

	if out.SampleRate != SampleRate {
		t.Fatalf("sample rate changed: %d", out.SampleRate)
	}
	if out.Len() != 26400 {
		t.Fatalf("expected 26400 samples, got %d", out.Len())
	}
	if out.Samples[0] != 0 || out.Samples[SampleRate-1] != 0 {
		t.Error("expected fade edges to reach 0")
	}
}

func TestProcess_AllStagesOff(t *testing.T) {
	in := NewBuffer([]float32{0.1, -0.2, 0.3}, SampleRate)
	out := Process(in, Options{Speed: 1.0})
	if out.Len() != 3 || out.Samples[1] != -0.2 {
		t.Fatalf("expected passthrough, got %v", out.Samples)
	}
}

func TestProcess_EmptyWithoutSmoothing(t *testing.T) {
	out := Process(NewBuffer(nil, SampleRate), Options{Speed: 1.3})
	if out.Samples == nil || out.Len() != 0 {
		t.Fatalf("expected empty non-nil buffer, got %v", out.Samples)
	}
}

func TestProcess_StageOrder(t *testing.T) {
	// 平滑后 26400 → 失真 ceil(26400/0.92)=28696 → 2 倍速 14348
	in := NewBuffer(constant(SampleRate, 0.5), SampleRate)
	out := Process(in, Options{Smoothing: true, Distortion: true, Speed: 2.0})
	if out.Len() != 14348 {
		t.Fatalf("expected 14348 samples, got %d", out.Len())
	}
}

func TestBuffer_Duration(t *testing.T) {
	b := NewBuffer(make([]float32, 36000), SampleRate)
	if b.Duration().Milliseconds() != 1500 {
		t.Errorf("expected 1500ms, got %v", b.Duration())
	}
	if (Buffer{}).Duration() != 0 {
		t.Error("zero buffer should have zero duration")
	}
}
