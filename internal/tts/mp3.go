package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/iabetor/tts-mcp/internal/audio"
)

// decodeMP3 将 MP3 数据解码为单声道 float32 样本。
// go-mp3 固定输出立体声 16-bit LE PCM。
func decodeMP3(ctx context.Context, data []byte) ([]float32, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("MP3 数据为空")
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("MP3 解码失败: %w", err)
	}

	var pcm bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, err := decoder.Read(chunk)
		pcm.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("读取 PCM 数据失败: %w", err)
		}
	}

	return audio.StereoBytesToMono(pcm.Bytes()), decoder.SampleRate(), nil
}
