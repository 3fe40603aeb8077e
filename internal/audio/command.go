package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/iabetor/tts-mcp/internal/logger"
)

// DefaultLinuxPlayers 是 Linux 下依次尝试的播放命令。
var DefaultLinuxPlayers = []string{"aplay", "paplay", "play", "cvlc --play-and-exit"}

// Runner 执行外部命令并返回其合并输出。
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandPlayer 把音频写入临时 WAV 文件，再调用系统播放器播放。
// 无论播放成功与否，临时文件都会被删除。
type CommandPlayer struct {
	goos     string
	players  []string
	tempDir  string
	run      Runner
	lookPath func(string) (string, error)
}

// CommandOption 配置 CommandPlayer。
type CommandOption func(*CommandPlayer)

// WithLinuxPlayers 覆盖 Linux 下的播放命令列表。
func WithLinuxPlayers(players []string) CommandOption {
	return func(p *CommandPlayer) {
		if len(players) > 0 {
			p.players = players
		}
	}
}

// WithTempDir 指定临时文件目录，空字符串表示系统默认目录。
func WithTempDir(dir string) CommandOption {
	return func(p *CommandPlayer) { p.tempDir = dir }
}

// WithRunner 替换命令执行函数。
func WithRunner(run Runner) CommandOption {
	return func(p *CommandPlayer) { p.run = run }
}

// WithGOOS 指定目标平台。
func WithGOOS(goos string) CommandOption {
	return func(p *CommandPlayer) { p.goos = goos }
}

// WithLookPath 替换可执行文件查找函数。
func WithLookPath(fn func(string) (string, error)) CommandOption {
	return func(p *CommandPlayer) { p.lookPath = fn }
}

// NewCommandPlayer 创建命令行播放器。
func NewCommandPlayer(opts ...CommandOption) *CommandPlayer {
	p := &CommandPlayer{
		goos:     runtime.GOOS,
		players:  DefaultLinuxPlayers,
		run:      execRunner,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play 写入临时文件并调用平台播放器，阻塞直到播放器退出。
func (p *CommandPlayer) Play(ctx context.Context, buf Buffer) (outcome Outcome) {
	f, err := os.CreateTemp(p.tempDir, "tts-mcp-*.wav")
	if err != nil {
		return Failed("Audio playback error: %v", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warnf("[audio] 删除临时文件失败 %s: %v", path, rmErr)
		} else {
			logger.Debugf("[audio] 已删除临时文件: %s", path)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed("Audio playback error: %v", r)
		}
	}()

	if err := EncodeWAV(f, buf); err != nil {
		f.Close()
		return Failed("Audio playback error: %v", err)
	}
	if err := f.Close(); err != nil {
		return Failed("Audio playback error: %v", err)
	}

	logger.Infof("[audio] 在 %s 上播放音频...", p.goos)
	switch p.goos {
	case "darwin":
		outcome = p.playDarwin(ctx, path)
	case "linux":
		outcome = p.playLinux(ctx, path)
	case "windows":
		outcome = p.playWindows(ctx, path)
	default:
		outcome = Failed("Unsupported operating system: %s", p.goos)
	}

	if outcome.Success {
		logger.Infof("[audio] %s", outcome.Message)
	} else {
		logger.Errorf("[audio] %s", outcome.Message)
	}
	return outcome
}

func (p *CommandPlayer) playDarwin(ctx context.Context, path string) Outcome {
	out, err := p.run(ctx, "afplay", path)
	if err == nil {
		return Succeeded("Audio played successfully on macOS")
	}
	if isNotFound(err) {
		return Failed("afplay command not found on macOS")
	}
	return Failed("macOS playback failed: %s", detail(out, err))
}

func (p *CommandPlayer) playLinux(ctx context.Context, path string) Outcome {
	var tried []string
	for _, cmd := range p.players {
		parts := strings.Fields(cmd)
		if len(parts) == 0 {
			continue
		}
		tried = append(tried, parts[0])
		args := append(parts[1:len(parts):len(parts)], path)
		if _, err := p.run(ctx, parts[0], args...); err != nil {
			logger.Debugf("[audio] %s 播放失败: %v", parts[0], err)
			continue
		}
		return Succeeded("Audio played successfully on Linux using " + parts[0])
	}
	return Failed("No suitable audio player found on Linux (tried %s)", strings.Join(tried, ", "))
}

func (p *CommandPlayer) playWindows(ctx context.Context, path string) Outcome {
	script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", path)
	out, err := p.run(ctx, "powershell", "-c", script)
	if err == nil {
		return Succeeded("Audio played successfully on Windows")
	}
	return Failed("Windows playback failed: %s", detail(out, err))
}

// Available 检查当前平台是否存在可用的播放器程序。
func (p *CommandPlayer) Available() bool {
	var candidates []string
	switch p.goos {
	case "darwin":
		candidates = []string{"afplay"}
	case "linux":
		for _, cmd := range p.players {
			if parts := strings.Fields(cmd); len(parts) > 0 {
				candidates = append(candidates, parts[0])
			}
		}
	case "windows":
		candidates = []string{"powershell"}
	}
	for _, name := range candidates {
		if _, err := p.lookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Close 无资源需要释放。
func (p *CommandPlayer) Close() {}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

func detail(out []byte, err error) string {
	if msg := string(bytes.TrimSpace(out)); msg != "" {
		return msg
	}
	return err.Error()
}
