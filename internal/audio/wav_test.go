package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	in := NewBuffer([]float32{0, 0.5, -0.5, 1.0}, SampleRate)

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, in); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if buf.Len() != 44+8 {
		t.Fatalf("expected %d bytes, got %d", 44+8, buf.Len())
	}

	out, err := DecodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if out.SampleRate != SampleRate {
		t.Errorf("sample rate: got %d", out.SampleRate)
	}
	if out.Len() != 4 {
		t.Fatalf("expected 4 samples, got %d", out.Len())
	}
	if out.Samples[0] != 0 || out.Samples[3] != 1.0 {
		t.Errorf("unexpected samples: %v", out.Samples)
	}
}

func TestEncodeWAV_InvalidRate(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, NewBuffer([]float32{0}, 0)); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDecodeWAV_NotWAV(t *testing.T) {
	_, err := DecodeWAV([]byte("definitely not a wav file"))
	if !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestDecodeWAV_SkipsExtraChunksAndDownmixes(t *testing.T) {
	// RIFF 头 + LIST 块 + 双声道 fmt + data
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.WriteString("WAVE")

	b.WriteString("LIST")
	binary.Write(&b, binary.LittleEndian, uint32(3))
	b.Write([]byte{1, 2, 3, 0}) // 奇数长度 + 填充字节

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint32(22050))
	binary.Write(&b, binary.LittleEndian, uint32(22050*4))
	binary.Write(&b, binary.LittleEndian, uint16(4))
	binary.Write(&b, binary.LittleEndian, uint16(16))

	pcm := Int16ToBytes([]int16{32767, 32767, 0, 0})
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)

	out, err := DecodeWAV(b.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if out.SampleRate != 22050 {
		t.Errorf("sample rate: got %d, want 22050", out.SampleRate)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 mono frames, got %d", out.Len())
	}
	if out.Samples[0] != 1.0 || out.Samples[1] != 0 {
		t.Errorf("unexpected samples: %v", out.Samples)
	}
}

func TestWriteWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVFile(path, NewBuffer(make([]float32, 100), SampleRate)); err != nil {
		t.Fatalf("WriteWAVFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 44+200 {
		t.Errorf("expected %d bytes, got %d", 244, info.Size())
	}
}
