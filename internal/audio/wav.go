package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidWAV 表示数据不是可识别的 16-bit PCM WAV。
var ErrInvalidWAV = errors.New("无效的 WAV 数据")

const wavHeaderSize = 44

// EncodeWAV 将单声道 float32 样本编码为 16-bit PCM WAV 写入 w。
func EncodeWAV(w io.Writer, buf Buffer) error {
	if buf.SampleRate <= 0 {
		return fmt.Errorf("无效的采样率: %d", buf.SampleRate)
	}
	pcm := Float32ToBytes(buf.Samples)

	const channels = 1
	const bitsPerSample = 16
	byteRate := buf.SampleRate * channels * bitsPerSample / 8

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("写入 WAV 头失败: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("写入 PCM 数据失败: %w", err)
	}
	return nil
}

// WriteWAVFile 将音频保存为 WAV 文件。
func WriteWAVFile(path string, buf Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建 WAV 文件失败: %w", err)
	}
	if err := EncodeWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DecodeWAV 解析 16-bit PCM WAV，多声道会被下混为单声道。
// 按 chunk 遍历，不假定 data 块紧跟在 44 字节头之后。
func DecodeWAV(data []byte) (Buffer, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Buffer{}, ErrInvalidWAV
	}

	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		haveFmt       bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return Buffer{}, fmt.Errorf("%w: fmt 块过短", ErrInvalidWAV)
			}
			format := binary.LittleEndian.Uint16(data[body:])
			if format != 1 {
				return Buffer{}, fmt.Errorf("%w: 不支持的编码格式 %d", ErrInvalidWAV, format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Buffer{}, fmt.Errorf("%w: data 块之前缺少 fmt 块", ErrInvalidWAV)
			}
			if bitsPerSample != 16 {
				return Buffer{}, fmt.Errorf("%w: 仅支持 16-bit，实际 %d", ErrInvalidWAV, bitsPerSample)
			}
			samples := DownmixInterleaved(BytesToFloat32(data[body:end]), channels)
			return Buffer{Samples: samples, SampleRate: sampleRate}, nil
		}

		// chunk 按偶数字节对齐
		pos = body + size + size%2
	}

	return Buffer{}, fmt.Errorf("%w: 缺少 data 块", ErrInvalidWAV)
}
