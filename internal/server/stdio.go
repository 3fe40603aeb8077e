package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/iabetor/tts-mcp/internal/logger"
)

// stdioSession 是 stdio 上唯一的客户端会话。
type stdioSession struct {
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool
	logLevel      atomic.Value
}

var _ mcpserver.SessionWithLogging = (*stdioSession)(nil)

func newStdioSession() *stdioSession {
	return &stdioSession{notifications: make(chan mcp.JSONRPCNotification, 100)}
}

func (s *stdioSession) SessionID() string { return "stdio" }

func (s *stdioSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return s.notifications
}

func (s *stdioSession) Initialize()       { s.initialized.Store(true) }
func (s *stdioSession) Initialized() bool { return s.initialized.Load() }

func (s *stdioSession) SetLogLevel(level mcp.LoggingLevel) { s.logLevel.Store(level) }

func (s *stdioSession) GetLogLevel() mcp.LoggingLevel {
	if level, ok := s.logLevel.Load().(mcp.LoggingLevel); ok {
		return level
	}
	return mcp.LoggingLevelError
}

// lineWriter 串行化多个 goroutine 对输出流的写入，每条消息一行。
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) write(msg mcp.JSONRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err = fmt.Fprintf(lw.w, "%s\n", data)
	return err
}

// ServeStdio 在 in/out 上运行 JSON-RPC 循环，直到 ctx 取消或输入结束。
// tools/call 在独立 goroutine 中执行，读循环不会被合成和播放阻塞，
// 引擎的串行化由 speech.Manager 负责。其余请求按到达顺序同步处理。
// 返回前等待所有进行中的调用写完响应。stdout 专用于协议，日志统一走 stderr。
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	session := newStdioSession()
	if err := s.mcp.RegisterSession(ctx, session); err != nil {
		return fmt.Errorf("注册 stdio 会话失败: %w", err)
	}
	defer s.mcp.UnregisterSession(ctx, session.SessionID())

	ctx, cancel := context.WithCancel(s.mcp.WithContext(ctx, session))
	defer cancel()

	w := &lineWriter{w: out}
	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		for {
			select {
			case n := <-session.notifications:
				if err := w.write(n); err != nil {
					logger.Warnf("[server] 写入通知失败: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	lines, readErr := readLines(ctx, in)

	logger.Infof("[server] MCP stdio 服务已启动")
	for {
		select {
		case <-ctx.Done():
			logger.Infof("[server] MCP stdio 服务已停止")
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				logger.Infof("[server] 输入已结束，MCP stdio 服务停止")
				return nil
			}
			return fmt.Errorf("读取输入失败: %w", err)
		case line := <-lines:
			s.dispatch(ctx, line, w, &wg)
		}
	}
}

// readLines 在后台逐行读取输入。最后一行之后才会发出读错误（含 io.EOF）。
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	reader := bufio.NewReader(in)

	go func() {
		for {
			line, err := reader.ReadString('\n')
			if strings.TrimSpace(line) != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()
	return lines, errc
}

// dispatch 处理一行输入。tools/call 异步执行，其余同步执行以保持顺序。
func (s *Server) dispatch(ctx context.Context, line string, w *lineWriter, wg *sync.WaitGroup) {
	raw := json.RawMessage(strings.TrimSpace(line))

	var head struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		s.reply(w, mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "Parse error", nil))
		return
	}

	if head.Method != string(mcp.MethodToolsCall) {
		s.reply(w, s.mcp.HandleMessage(ctx, raw))
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.reply(w, s.mcp.HandleMessage(ctx, raw))
	}()
}

func (s *Server) reply(w *lineWriter, msg mcp.JSONRPCMessage) {
	// 通知没有响应
	if msg == nil {
		return
	}
	if err := w.write(msg); err != nil {
		logger.Warnf("[server] 写入响应失败: %v", err)
	}
}
