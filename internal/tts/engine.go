package tts

import (
	"context"
	"errors"

	"github.com/iabetor/tts-mcp/internal/voices"
)

var (
	// ErrDependencyMissing 表示合成后端依赖的程序或模型文件不存在。
	ErrDependencyMissing = errors.New("合成依赖不可用")
	// ErrModelInit 表示模型加载或客户端创建失败。
	ErrModelInit = errors.New("模型初始化失败")
)

// Engine 定义语音合成后端接口。
type Engine interface {
	// Synthesize 将文本转换为单声道音频。
	// 返回 float32 音频样本、采样率（Hz）和错误。
	Synthesize(ctx context.Context, text string, voice voices.Voice) ([]float32, int, error)
}

// Loader 构造一个合成引擎。构造可能耗时数秒（加载模型），由调用方决定何时执行。
type Loader func(ctx context.Context) (Engine, error)

// Close 释放持有原生资源的引擎，其它引擎直接忽略。
func Close(e Engine) {
	if c, ok := e.(interface{ Close() }); ok {
		c.Close()
	}
}

// byGender 按音色性别在两个候选值中选择。
func byGender[T any](v voices.Voice, male, female T) T {
	if v.Gender == voices.Male {
		return male
	}
	return female
}
