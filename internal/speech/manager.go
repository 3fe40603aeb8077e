// Package speech 管理合成引擎的生命周期，并把一次播报串成
// 校验 → 合成 → 后处理 → 播放 的完整流程。
package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/tts-mcp/internal/audio"
	"github.com/iabetor/tts-mcp/internal/config"
	"github.com/iabetor/tts-mcp/internal/history"
	"github.com/iabetor/tts-mcp/internal/logger"
	"github.com/iabetor/tts-mcp/internal/tts"
	"github.com/iabetor/tts-mcp/internal/voices"
)

const (
	// DefaultMaxWords 单次播报的字数上限。
	DefaultMaxWords = 100
	// DefaultSpeed 默认语速倍率。
	DefaultSpeed = 1.3
	// MinSpeed 和 MaxSpeed 限定语速范围。
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Request 一次播报请求。Voice、Speed 为 nil 时使用默认值，
// 显式给出的值（包括空字符串和 0）原样参与校验。
type Request struct {
	Text       string
	Voice      *string
	Distortion bool
	Speed      *float64
}

// voiceID 返回请求实际使用的音色 ID。
func (m *Manager) voiceID(req Request) string {
	if req.Voice == nil {
		return m.defaultVoice
	}
	return *req.Voice
}

// speed 返回请求实际使用的语速。
func (m *Manager) speed(req Request) float64 {
	if req.Speed == nil {
		return m.defaultSpeed
	}
	return *req.Speed
}

// Result 播报结果。Message 总是可直接展示给用户的描述。
type Result struct {
	ID       string
	Success  bool
	Message  string
	Samples  int
	Duration time.Duration
}

// Recorder 接收每次调用的结果，用于播报记录。
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Manager 独占持有合成引擎。Initialize、Speak、Generate、Cleanup 共用同一把互斥权，
// 同一时刻只有一个调用能接触模型。进程内应只构造一个 Manager。
type Manager struct {
	load     tts.Loader
	player   audio.Player
	recorder Recorder

	maxWords     int
	defaultVoice string
	defaultSpeed float64
	smoothing    bool

	// guard 是容量为 1 的信号量，等待时可以响应 ctx 取消
	guard  chan struct{}
	state  *stateMachine
	engine tts.Engine

	errMu   sync.RWMutex
	lastErr error
}

// Option 配置 Manager。
type Option func(*Manager)

// WithMaxWords 设置字数上限。
func WithMaxWords(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxWords = n
		}
	}
}

// WithDefaultVoice 设置默认音色。
func WithDefaultVoice(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.defaultVoice = id
		}
	}
}

// WithDefaultSpeed 设置请求未指定语速时使用的倍率。
func WithDefaultSpeed(speed float64) Option {
	return func(m *Manager) {
		if speed > 0 {
			m.defaultSpeed = speed
		}
	}
}

// WithSmoothing 开关淡入淡出平滑。
func WithSmoothing(on bool) Option {
	return func(m *Manager) { m.smoothing = on }
}

// WithRecorder 设置播报记录器。
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithStateListener 注册引擎状态变化回调。回调在持有互斥权时同步执行，不能调用 Manager 的阻塞方法。
func WithStateListener(fn func(from, to State)) Option {
	return func(m *Manager) { m.state.onChange = fn }
}

// ConfigOptions 把 speech 配置段转换为 Option。
func ConfigOptions(cfg config.SpeechConfig) []Option {
	return []Option{
		WithMaxWords(cfg.MaxWords),
		WithDefaultVoice(cfg.DefaultVoice),
		WithDefaultSpeed(cfg.DefaultSpeed),
		WithSmoothing(cfg.SmoothingEnabled()),
	}
}

// New 创建 Manager。player 可以为 nil，此时只能使用 Generate。
func New(load tts.Loader, player audio.Player, opts ...Option) *Manager {
	m := &Manager{
		load:         load,
		player:       player,
		maxWords:     DefaultMaxWords,
		defaultVoice: voices.DefaultID,
		defaultSpeed: DefaultSpeed,
		smoothing:    true,
		guard:        make(chan struct{}, 1),
		state:        newStateMachine(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State 返回引擎当前状态。
func (m *Manager) State() State {
	return m.state.Current()
}

// LastError 返回最近一次加载失败的原因，加载成功后清空。
func (m *Manager) LastError() error {
	m.errMu.RLock()
	defer m.errMu.RUnlock()
	return m.lastErr
}

// MaxWords 返回字数上限。
func (m *Manager) MaxWords() int { return m.maxWords }

// DefaultVoice 返回默认音色 ID。
func (m *Manager) DefaultVoice() string { return m.defaultVoice }

// DefaultSpeed 返回默认语速。
func (m *Manager) DefaultSpeed() float64 { return m.defaultSpeed }

func (m *Manager) setLastErr(err error) {
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.guard
}

// Initialize 加载模型。已就绪时直接返回；失败时进入 Failed 并记录原因，
// 返回的错误同时匹配 ErrEngineUnavailable 和加载器的原始错误。
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()
	return m.initLocked(context.WithoutCancel(ctx))
}

func (m *Manager) initLocked(ctx context.Context) error {
	switch m.state.Current() {
	case StateReady:
		logger.Debugf("[engine] 引擎已就绪，跳过初始化")
		return nil
	case StateFailed:
		logger.Warnf("[engine] 上次加载失败（%v），重新尝试", m.LastError())
	}

	m.state.Transition(StateInitializing)
	logger.Infof("[engine] 正在加载合成模型...")
	start := time.Now()

	engine, err := m.callLoader(ctx)
	if err == nil && engine == nil {
		err = errors.New("loader returned no engine")
	}
	if err != nil {
		m.setLastErr(err)
		m.state.Transition(StateFailed)
		logger.Errorf("[engine] 模型加载失败: %v", err)
		return fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	m.engine = engine
	m.setLastErr(nil)
	m.state.Transition(StateReady)
	logger.Infof("[engine] 模型加载完成，耗时 %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Manager) callLoader(ctx context.Context) (engine tts.Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return m.load(ctx)
}

// Cleanup 释放模型并回到 Uninitialized，可重复调用。
// 会等待正在进行的调用结束后再执行。
func (m *Manager) Cleanup() {
	m.guard <- struct{}{}
	defer m.release()

	if m.engine != nil {
		tts.Close(m.engine)
		m.engine = nil
	}

	switch m.state.Current() {
	case StateReady, StateFailed:
		m.state.Transition(StateUninitialized)
		logger.Infof("[engine] 合成引擎已释放")
	}
}

// Speak 校验请求、合成、后处理并播放。
// 任何失败都体现在 Result.Message 中，同时返回可用 errors.Is 判断类别的错误。
func (m *Manager) Speak(ctx context.Context, req Request) (Result, error) {
	res, _, err := m.run(ctx, req, true)
	return res, err
}

// Generate 与 Speak 相同但不播放，返回处理后的音频。
func (m *Manager) Generate(ctx context.Context, req Request) (Result, audio.Buffer, error) {
	return m.run(ctx, req, false)
}

// WordCount 返回按空白切分后的词数。
func WordCount(text string) int {
	return len(strings.Fields(text))
}

type resolved struct {
	voice voices.Voice
	speed float64
}

// validate 按固定顺序检查：字数 → 空文本 → 音色 → 语速。
func (m *Manager) validate(req Request) (resolved, string, error) {
	if n := WordCount(req.Text); n > m.maxWords {
		err := &WordLimitError{Count: n, Limit: m.maxWords}
		return resolved{}, err.Error(), err
	}
	if strings.TrimSpace(req.Text) == "" {
		return resolved{}, "Text cannot be empty", ErrEmptyText
	}

	id := m.voiceID(req)
	voice, ok := voices.Lookup(id)
	if !ok {
		return resolved{}, fmt.Sprintf("Invalid voice: %s", id), fmt.Errorf("%w: %s", ErrInvalidVoice, id)
	}

	speed := m.speed(req)
	if math.IsNaN(speed) || speed < MinSpeed || speed > MaxSpeed {
		msg := fmt.Sprintf("Speed must be between %.1f and %.1f (provided: %g)", MinSpeed, MaxSpeed, speed)
		return resolved{}, msg, fmt.Errorf("%w: %g", ErrInvalidSpeed, speed)
	}

	return resolved{voice: voice, speed: speed}, "", nil
}

func (m *Manager) run(ctx context.Context, req Request, play bool) (res Result, buf audio.Buffer, err error) {
	res.ID = uuid.NewString()
	start := time.Now()
	defer func() {
		m.record(ctx, req, res, start)
	}()

	r, msg, err := m.validate(req)
	if err != nil {
		logger.Infof("[engine] %s 请求被拒绝: %s", res.ID, msg)
		res.Message = msg
		return res, audio.Buffer{}, err
	}

	if err := m.acquire(ctx); err != nil {
		res.Message = "Request cancelled while waiting for the TTS engine"
		return res, audio.Buffer{}, err
	}
	defer m.release()

	// 拿到互斥权后不再响应取消，保证本次调用完整执行
	work := context.WithoutCancel(ctx)

	if m.state.Current() != StateReady {
		if err := m.initLocked(work); err != nil {
			res.Message = fmt.Sprintf("TTS engine is not available: %v", m.LastError())
			return res, audio.Buffer{}, err
		}
	}

	opts := audio.Options{Smoothing: m.smoothing, Distortion: req.Distortion, Speed: r.speed}
	logger.Infof("[engine] %s 合成中: voice=%s speed=%.2f distortion=%v words=%d",
		res.ID, r.voice.ID, r.speed, req.Distortion, WordCount(req.Text))

	buf, err = m.synthesize(work, req.Text, r.voice, opts)
	if err != nil {
		logger.Errorf("[engine] %s 合成失败: %v", res.ID, err)
		res.Message = fmt.Sprintf("Speech generation failed: %v", err)
		return res, audio.Buffer{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	res.Samples = buf.Len()
	res.Duration = buf.Duration()

	if !play {
		res.Success = true
		res.Message = "Speech generated successfully (playback disabled)"
		return res, buf, nil
	}

	outcome := m.play(work, buf)
	res.Success = outcome.Success
	res.Message = outcome.Message
	if !outcome.Success {
		return res, buf, fmt.Errorf("%w: %s", ErrPlaybackFailed, outcome.Message)
	}
	return res, buf, nil
}

// synthesize 调用引擎并完成后处理。引擎内部的 panic 被转换为错误。
func (m *Manager) synthesize(ctx context.Context, text string, voice voices.Voice, opts audio.Options) (buf audio.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = audio.Buffer{}, fmt.Errorf("synthesizer panic: %v", r)
		}
	}()

	samples, rate, err := m.engine.Synthesize(ctx, text, voice)
	if err != nil {
		return audio.Buffer{}, err
	}

	raw := audio.NewBuffer(samples, rate)
	if rate != audio.SampleRate {
		logger.Debugf("[engine] 重采样 %d Hz → %d Hz", rate, audio.SampleRate)
		if raw, err = audio.ResampleTo(raw, audio.SampleRate); err != nil {
			return audio.Buffer{}, err
		}
	}

	return audio.Process(raw, opts), nil
}

func (m *Manager) play(ctx context.Context, buf audio.Buffer) (outcome audio.Outcome) {
	if m.player == nil {
		return audio.Failed("No audio player configured")
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = audio.Failed("Audio playback error: %v", r)
		}
	}()
	return m.player.Play(ctx, buf)
}

func (m *Manager) record(ctx context.Context, req Request, res Result, start time.Time) {
	if m.recorder == nil {
		return
	}
	entry := history.Entry{
		ID:         res.ID,
		Text:       req.Text,
		Voice:      m.voiceID(req),
		Speed:      m.speed(req),
		Distortion: req.Distortion,
		Success:    res.Success,
		Message:    res.Message,
		Samples:    res.Samples,
		DurationMS: res.Duration.Milliseconds(),
		CreatedAt:  start,
	}
	if err := m.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warnf("[engine] 写入播报记录失败: %v", err)
	}
}
