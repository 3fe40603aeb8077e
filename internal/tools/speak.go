package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iabetor/tts-mcp/internal/speech"
	"github.com/iabetor/tts-mcp/internal/voices"
)

// Speaker 是 speak 工具依赖的播报能力，由 *speech.Manager 实现。
type Speaker interface {
	Speak(ctx context.Context, req speech.Request) (speech.Result, error)
	MaxWords() int
	DefaultVoice() string
	DefaultSpeed() float64
}

// SpeakTool 把文本合成为语音并播放。
type SpeakTool struct {
	speaker Speaker
}

func NewSpeakTool(speaker Speaker) *SpeakTool {
	return &SpeakTool{speaker: speaker}
}

func (t *SpeakTool) Name() string { return "speak" }

func (t *SpeakTool) Description() string {
	return fmt.Sprintf("Convert text to speech and play it. Maximum %d words.", t.speaker.MaxWords())
}

func (t *SpeakTool) Parameters() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("The text to speak (max %d words)", t.speaker.MaxWords()),
			},
			"voice": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Voice to use (default: %s)", t.speaker.DefaultVoice()),
				"default":     t.speaker.DefaultVoice(),
				"enum":        voices.IDs(),
			},
			"distortion_effect": map[string]any{
				"type":        "boolean",
				"description": "Apply robotic voice distortion effect",
				"default":     false,
			},
			"robotic": map[string]any{
				"type":        "boolean",
				"description": "Alias of distortion_effect",
				"default":     false,
			},
			"speed": map[string]any{
				"type":        "number",
				"description": "Playback speed factor (1.0 = normal, 1.3 = 30% faster)",
				"default":     t.speaker.DefaultSpeed(),
				"minimum":     speech.MinSpeed,
				"maximum":     speech.MaxSpeed,
			},
		},
		"required": []string{"text"},
	}
	data, _ := json.Marshal(schema)
	return data
}

type speakArgs struct {
	Text             string   `json:"text"`
	Voice            *string  `json:"voice"`
	DistortionEffect *bool    `json:"distortion_effect"`
	Robotic          *bool    `json:"robotic"`
	Speed            *float64 `json:"speed"`
}

func (t *SpeakTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a speakArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("参数解析失败: %w", err)
	}

	// voice 与 speed 只有缺省时才取默认值，显式传入的值原样交给校验
	req := speech.Request{
		Text:  a.Text,
		Voice: a.Voice,
		Speed: a.Speed,
	}
	if a.DistortionEffect != nil {
		req.Distortion = *a.DistortionEffect
	} else if a.Robotic != nil {
		req.Distortion = *a.Robotic
	}

	res, err := t.speaker.Speak(ctx, req)
	switch {
	case errors.Is(err, speech.ErrTextTooLong), errors.Is(err, speech.ErrEmptyText):
		return "Error: " + res.Message, nil
	case res.Success:
		return "TTS Success: " + res.Message, nil
	default:
		return "TTS Failed: " + res.Message, nil
	}
}
