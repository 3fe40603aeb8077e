package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iabetor/tts-mcp/internal/history"
)

const maxHistoryLimit = 50

// HistoryReader 读取最近的播报记录。
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// HistoryTool 查询最近的播报记录。
type HistoryTool struct {
	reader HistoryReader
}

func NewHistoryTool(reader HistoryReader) *HistoryTool {
	return &HistoryTool{reader: reader}
}

func (t *HistoryTool) Name() string { return "speech_history" }

func (t *HistoryTool) Description() string {
	return "Show recently spoken texts and whether playback succeeded"
}

func (t *HistoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {
				"type": "integer",
				"description": "Number of records to return (default 10, max 50)",
				"default": 10,
				"minimum": 1,
				"maximum": 50
			}
		}
	}`)
}

type historyArgs struct {
	Limit int `json:"limit"`
}

func (t *HistoryTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a historyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("参数解析失败: %w", err)
	}
	if a.Limit <= 0 {
		a.Limit = 10
	}
	if a.Limit > maxHistoryLimit {
		a.Limit = maxHistoryLimit
	}

	entries, err := t.reader.Recent(ctx, a.Limit)
	if err != nil {
		return "", err
	}
	return FormatHistory(entries), nil
}

// FormatHistory 把播报记录格式化为多行文本。
func FormatHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No speech history yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recent speech (%d):\n\n", len(entries))
	for _, e := range entries {
		status := "OK"
		if !e.Success {
			status = "FAILED"
		}
		effect := ""
		if e.Distortion {
			effect = " robotic"
		}
		fmt.Fprintf(&sb, "• %s [%s] %s x%.2f%s: %q",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), status, e.Voice, e.Speed, effect, e.Text)
		if e.Message != "" {
			fmt.Fprintf(&sb, " (%s)", e.Message)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
