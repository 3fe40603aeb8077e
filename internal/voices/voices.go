// Package voices 定义内置模型支持的固定音色目录。
package voices

import "fmt"

// Gender 音色性别。
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Voice 是目录中的一个音色条目，构建时确定，运行期不可变。
type Voice struct {
	ID          string `json:"id"`
	Gender      Gender `json:"gender"`
	Description string `json:"description"`
}

// DefaultID 是默认音色。
const DefaultID = "expr-voice-2-f"

// catalog 的顺序与 KittenTTS 模型的 speaker id 一致，不能调整。
var catalog = []Voice{
	{ID: "expr-voice-2-m", Gender: Male, Description: "Expression voice 2 - Male"},
	{ID: "expr-voice-2-f", Gender: Female, Description: "Expression voice 2 - Female"},
	{ID: "expr-voice-3-m", Gender: Male, Description: "Expression voice 3 - Male"},
	{ID: "expr-voice-3-f", Gender: Female, Description: "Expression voice 3 - Female"},
	{ID: "expr-voice-4-m", Gender: Male, Description: "Expression voice 4 - Male"},
	{ID: "expr-voice-4-f", Gender: Female, Description: "Expression voice 4 - Female"},
	{ID: "expr-voice-5-m", Gender: Male, Description: "Expression voice 5 - Male"},
	{ID: "expr-voice-5-f", Gender: Female, Description: "Expression voice 5 - Female"},
}

// All 返回目录的副本。
func All() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// IDs 按目录顺序返回全部音色 ID。
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, v := range catalog {
		ids[i] = v.ID
	}
	return ids
}

// Lookup 按 ID 查找音色。
func Lookup(id string) (Voice, bool) {
	for _, v := range catalog {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// IsValid 判断音色 ID 是否在目录中。
func IsValid(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Default 返回默认音色。
func Default() Voice {
	v, _ := Lookup(DefaultID)
	return v
}

// SpeakerID 返回音色在模型中的 speaker id（即目录下标）。
func SpeakerID(id string) (int, error) {
	for i, v := range catalog {
		if v.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("未知音色: %s", id)
}

func (v Voice) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.ID, v.Description, v.Gender)
}
