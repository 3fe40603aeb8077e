package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type echoTool struct{ name string }

func (e *echoTool) Name() string                { return e.name }
func (e *echoTool) Description() string         { return "echo " + e.name }
func (e *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (e *echoTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	if string(args) == `{"fail":true}` {
		return "", errors.New("boom")
	}
	return string(args), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewListVoicesTool(""))

	if reg.Count() != 1 {
		t.Errorf("expected count 1, got %d", reg.Count())
	}

	got, ok := reg.Get("list_voices")
	if !ok {
		t.Fatal("expected to find tool 'list_voices'")
	}
	if got.Name() != "list_voices" {
		t.Errorf("expected name 'list_voices', got %q", got.Name())
	}

	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("expected not to find 'nonexistent'")
	}
}

func TestRegistry_DefinitionsKeepOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&echoTool{name: "b"})
	reg.Register(&echoTool{name: "a"})
	reg.Register(&echoTool{name: "c"})
	reg.Register(&echoTool{name: "a"}) // 替换，不重复

	defs := reg.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	want := []string{"b", "a", "c"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("definition %d: expected %q, got %q", i, want[i], d.Name)
		}
		if d.Description == "" || len(d.Parameters) == 0 {
			t.Errorf("definition %q incomplete", d.Name)
		}
	}
}

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&echoTool{name: "echo"})

	result, err := reg.Execute(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"x":1}` {
		t.Errorf("unexpected result %q", result)
	}

	// 空参数按 {} 处理
	result, _ = reg.Execute(context.Background(), "echo", nil)
	if result != `{}` {
		t.Errorf("expected {}, got %q", result)
	}

	if _, err := reg.Execute(context.Background(), "echo", json.RawMessage(`{"fail":true}`)); err == nil {
		t.Error("expected tool error to propagate")
	}
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Execute(context.Background(), "unknown_tool", json.RawMessage(`{}`))

	var unknown *UnknownToolError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownToolError, got %v", err)
	}
	if err.Error() != "Unknown tool: unknown_tool" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
