// Package history 把每次播报的结果写入 SQLite，供 speech_history 工具和 CLI 查询。
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/iabetor/tts-mcp/internal/database"
	"github.com/iabetor/tts-mcp/internal/logger"
)

// Entry 是一条播报记录。
type Entry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Voice      string    `json:"voice"`
	Speed      float64   `json:"speed"`
	Distortion bool      `json:"distortion"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Samples    int       `json:"samples"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store 播报记录存储。
type Store struct {
	db *database.DB
}

// Open 打开数据库并完成迁移。
func Open(dbPath string) (*Store, error) {
	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record 写入一条记录，CreatedAt 为空时使用当前时间。
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO speech_log (id, text, voice, speed, distortion, success, message, samples, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Text, e.Voice, e.Speed, e.Distortion, e.Success, e.Message, e.Samples, e.DurationMS, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("写入播报记录失败: %w", err)
	}
	logger.Debugf("[history] 已记录 %s (success=%v)", e.ID, e.Success)
	return nil
}

// Recent 按时间倒序返回最近的 limit 条记录。
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, voice, speed, distortion, success, message, samples, duration_ms, created_at
		 FROM speech_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询播报记录失败: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Text, &e.Voice, &e.Speed, &e.Distortion, &e.Success,
			&e.Message, &e.Samples, &e.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("读取播报记录失败: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close 关闭数据库。
func (s *Store) Close() error {
	return s.db.Close()
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTime 兼容驱动返回 time.Time 或字符串两种情况。
func parseTime(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
