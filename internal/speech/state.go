package speech

import (
	"sync"

	"github.com/iabetor/tts-mcp/internal/logger"
)

// State 表示合成引擎的生命周期状态。
type State int

const (
	// StateUninitialized 未加载模型（初始状态，或 Cleanup 之后）。
	StateUninitialized State = iota
	// StateInitializing 正在加载模型。
	StateInitializing
	// StateReady 模型可用。
	StateReady
	// StateFailed 最近一次加载失败。
	StateFailed
)

var stateNames = [...]string{
	"Uninitialized",
	"Initializing",
	"Ready",
	"Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// stateMachine 管理线程安全的状态转换。写入只发生在持有 Manager 互斥权期间，
// 读取可以随时进行。
type stateMachine struct {
	mu       sync.RWMutex
	current  State
	onChange func(from, to State)
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateUninitialized}
}

// Current 返回当前状态。
func (sm *stateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition 尝试切换状态。只有合法的转换才会生效：
//
//	Uninitialized → Initializing （开始加载）
//	Failed        → Initializing （调用方重试）
//	Initializing  → Ready | Failed
//	Ready         → Uninitialized （Cleanup）
//	Failed        → Uninitialized （Cleanup）
func (sm *stateMachine) Transition(to State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !validTransition(sm.current, to) {
		logger.Warnf("[engine] 非法状态转换 %s → %s", sm.current, to)
		return false
	}

	from := sm.current
	sm.current = to
	logger.Debugf("[engine] %s → %s", from, to)

	if sm.onChange != nil {
		sm.onChange(from, to)
	}
	return true
}

func validTransition(from, to State) bool {
	switch from {
	case StateUninitialized:
		return to == StateInitializing
	case StateInitializing:
		return to == StateReady || to == StateFailed
	case StateReady:
		return to == StateUninitialized
	case StateFailed:
		return to == StateInitializing || to == StateUninitialized
	}
	return false
}
