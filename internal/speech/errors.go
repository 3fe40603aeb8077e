package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrTextTooLong 文本超过字数上限，具体数字见 *WordLimitError。
	ErrTextTooLong = errors.New("text exceeds word limit")
	// ErrEmptyText 文本为空或只有空白。
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrInvalidVoice 音色不在目录中。
	ErrInvalidVoice = errors.New("invalid voice")
	// ErrInvalidSpeed 语速超出 [MinSpeed, MaxSpeed]。
	ErrInvalidSpeed = errors.New("invalid speed")
	// ErrEngineUnavailable 模型加载失败。
	ErrEngineUnavailable = errors.New("tts engine unavailable")
	// ErrSynthesisFailed 合成或后处理出错。
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrPlaybackFailed 播放器缺失或报错。
	ErrPlaybackFailed = errors.New("audio playback failed")
)

// WordLimitError 携带实际字数和上限。
type WordLimitError struct {
	Count int
	Limit int
}

func (e *WordLimitError) Error() string {
	return fmt.Sprintf("Text exceeds %d words limit (provided: %d words)", e.Limit, e.Count)
}

// Is 使 errors.Is(err, ErrTextTooLong) 成立。
func (e *WordLimitError) Is(target error) bool {
	return target == ErrTextTooLong
}
