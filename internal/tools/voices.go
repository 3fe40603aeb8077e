package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iabetor/tts-mcp/internal/voices"
)

// ListVoicesTool 列出所有可用音色。
type ListVoicesTool struct {
	defaultVoice string
}

func NewListVoicesTool(defaultVoice string) *ListVoicesTool {
	if defaultVoice == "" {
		defaultVoice = voices.DefaultID
	}
	return &ListVoicesTool{defaultVoice: defaultVoice}
}

func (t *ListVoicesTool) Name() string { return "list_voices" }

func (t *ListVoicesTool) Description() string {
	return "List all available TTS voices"
}

func (t *ListVoicesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListVoicesTool) Execute(_ context.Context, _ json.RawMessage) (string, error) {
	return FormatVoices(t.defaultVoice), nil
}

// FormatVoices 生成音色列表文本，CLI 的 voices 命令也使用它。
func FormatVoices(defaultVoice string) string {
	var sb strings.Builder
	sb.WriteString("Available TTS Voices:\n\n")
	for _, v := range voices.All() {
		fmt.Fprintf(&sb, "• %s\n", v)
	}
	fmt.Fprintf(&sb, "\nDefault voice: %s", defaultVoice)
	return sb.String()
}
