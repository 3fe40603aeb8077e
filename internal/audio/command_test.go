package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

// fakeRunner 记录调用，并在调用时确认临时文件存在。
type fakeRunner struct {
	t       *testing.T
	calls   []call
	results map[string]error
	output  []byte
	paths   []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	for _, a := range args {
		if strings.HasSuffix(a, ".wav") {
			f.paths = append(f.paths, a)
			if _, err := os.Stat(a); err != nil {
				f.t.Errorf("temp file should exist while playing: %v", err)
			}
		}
	}
	if err, ok := f.results[name]; ok {
		return f.output, err
	}
	return nil, nil
}

func notFound(name string) error {
	return &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func testBuffer() Buffer {
	return NewBuffer(make([]float32, 240), SampleRate)
}

func assertRemoved(t *testing.T, paths []string) {
	t.Helper()
	if len(paths) == 0 {
		t.Fatal("runner never saw a temp file")
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp file %s should be removed, stat err=%v", p, err)
		}
	}
}

func TestCommandPlayer_Darwin(t *testing.T) {
	r := &fakeRunner{t: t}
	p := NewCommandPlayer(WithGOOS("darwin"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	if !out.Success || out.Message != "Audio played successfully on macOS" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(r.calls) != 1 || r.calls[0].name != "afplay" {
		t.Fatalf("expected afplay call, got %+v", r.calls)
	}
	assertRemoved(t, r.paths)
}

func TestCommandPlayer_DarwinNotFound(t *testing.T) {
	r := &fakeRunner{t: t, results: map[string]error{"afplay": notFound("afplay")}}
	p := NewCommandPlayer(WithGOOS("darwin"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	if out.Success || out.Message != "afplay command not found on macOS" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	assertRemoved(t, r.paths)
}

func TestCommandPlayer_DarwinFailureUsesOutput(t *testing.T) {
	r := &fakeRunner{t: t, results: map[string]error{"afplay": errors.New("exit status 1")}, output: []byte("bad file\n")}
	p := NewCommandPlayer(WithGOOS("darwin"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	if out.Success || out.Message != "macOS playback failed: bad file" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestCommandPlayer_LinuxFallsThrough(t *testing.T) {
	r := &fakeRunner{t: t, results: map[string]error{
		"aplay":  notFound("aplay"),
		"paplay": errors.New("exit status 1"),
	}}
	p := NewCommandPlayer(WithGOOS("linux"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	if !out.Success || out.Message != "Audio played successfully on Linux using play" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(r.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(r.calls))
	}
	assertRemoved(t, r.paths)
}

func TestCommandPlayer_LinuxNoneFound(t *testing.T) {
	r := &fakeRunner{t: t, results: map[string]error{
		"aplay":  notFound("aplay"),
		"paplay": notFound("paplay"),
		"play":   notFound("play"),
		"cvlc":   notFound("cvlc"),
	}}
	p := NewCommandPlayer(WithGOOS("linux"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	want := "No suitable audio player found on Linux (tried aplay, paplay, play, cvlc)"
	if out.Success || out.Message != want {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	last := r.calls[len(r.calls)-1]
	if last.name != "cvlc" || last.args[0] != "--play-and-exit" {
		t.Errorf("cvlc should get --play-and-exit, got %+v", last)
	}
	assertRemoved(t, r.paths)
}

func TestCommandPlayer_Windows(t *testing.T) {
	r := &fakeRunner{t: t}
	p := NewCommandPlayer(WithGOOS("windows"), WithRunner(r.run), WithTempDir(t.TempDir()))

	out := p.Play(context.Background(), testBuffer())
	if !out.Success || out.Message != "Audio played successfully on Windows" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	c := r.calls[0]
	if c.name != "powershell" || c.args[0] != "-c" || !strings.Contains(c.args[1], "PlaySync()") {
		t.Fatalf("unexpected command: %+v", c)
	}
}

func TestCommandPlayer_UnsupportedOS(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{t: t}
	p := NewCommandPlayer(WithGOOS("plan9"), WithRunner(r.run), WithTempDir(dir))

	out := p.Play(context.Background(), testBuffer())
	if out.Success || out.Message != "Unsupported operating system: plan9" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp dir should be empty, found %d entries", len(entries))
	}
}

func TestCommandPlayer_PanicStillCleansUp(t *testing.T) {
	dir := t.TempDir()
	p := NewCommandPlayer(WithGOOS("darwin"), WithTempDir(dir), WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		panic("player crashed")
	}))

	out := p.Play(context.Background(), testBuffer())
	if out.Success || !strings.Contains(out.Message, "player crashed") {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp dir should be empty, found %d entries", len(entries))
	}
}

func TestCommandPlayer_EncodeErrorCleansUp(t *testing.T) {
	dir := t.TempDir()
	p := NewCommandPlayer(WithGOOS("darwin"), WithTempDir(dir))

	out := p.Play(context.Background(), NewBuffer([]float32{0}, 0))
	if out.Success || !strings.HasPrefix(out.Message, "Audio playback error:") {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp dir should be empty, found %d entries", len(entries))
	}
}

func TestCommandPlayer_Available(t *testing.T) {
	found := func(want string) func(string) (string, error) {
		return func(name string) (string, error) {
			if name == want {
				return "/usr/bin/" + name, nil
			}
			return "", exec.ErrNotFound
		}
	}

	tests := []struct {
		goos string
		bin  string
		want bool
	}{
		{"darwin", "afplay", true},
		{"linux", "paplay", true},
		{"linux", "cvlc", true},
		{"linux", "afplay", false},
		{"windows", "powershell", true},
		{"plan9", "afplay", false},
	}
	for _, tt := range tests {
		p := NewCommandPlayer(WithGOOS(tt.goos), WithLookPath(found(tt.bin)))
		if got := p.Available(); got != tt.want {
			t.Errorf("%s with %s: got %v, want %v", tt.goos, tt.bin, got, tt.want)
		}
	}
}

func TestCommandPlayer_CustomLinuxPlayers(t *testing.T) {
	r := &fakeRunner{t: t}
	p := NewCommandPlayer(WithGOOS("linux"), WithRunner(r.run), WithTempDir(t.TempDir()),
		WithLinuxPlayers([]string{"mpv --no-video"}))

	out := p.Play(context.Background(), testBuffer())
	if !out.Success || r.calls[0].name != "mpv" || r.calls[0].args[0] != "--no-video" {
		t.Fatalf("unexpected: %+v %+v", out, r.calls)
	}
}
