// Package eventlog records operational events by category and key.
//
// Every event is written to the application logger with "category" and "key"
// fields. When a directory is configured each category also gets its own
// append-only file, <dir>/<CATEGORY>.log.
package eventlog

import (
	"io"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/checkwatch/internal/logging"
)

type Category string

const (
	INFO Category = "INFO"
	PROB Category = "PROB"
	ERR  Category = "ERR"
	CHCK Category = "CHCK"
	ATK  Category = "ATK"
	WARN Category = "WARN"
	USER Category = "USER"
	TEST Category = "TEST"
)

// SysKey is the key for events that do not belong to a single check.
const SysKey = "SYS"

func (c Category) Valid() bool {
	switch c {
	case INFO, PROB, ERR, CHCK, ATK, WARN, USER, TEST:
		return true
	}
	return false
}

func (c Category) level() zapcore.Level {
	switch c {
	case ERR:
		return zapcore.ErrorLevel
	case WARN, ATK, PROB:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recorder records one event. key is the check id or a sentinel.
type Recorder interface {
	Record(cat Category, key, msg string, fields ...zap.Field)
}

// Discard drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Category, string, string, ...zap.Field) {}

const EnvProduction = "production"

type Log struct {
	base *zap.Logger
	env  string
	dir  string

	mu      sync.Mutex
	files   map[Category]*zap.Logger
	closers []io.Closer
}

// New returns a Log writing to base and, if dir is not empty, to per-category
// files under dir. In production INFO events are dropped.
func New(base *zap.Logger, env, dir string) *Log {
	if base == nil {
		base = zap.NewNop()
	}
	return &Log{
		base:  base,
		env:   env,
		dir:   dir,
		files: make(map[Category]*zap.Logger),
	}
}

func (l *Log) Record(cat Category, key, msg string, fields ...zap.Field) {
	if !cat.Valid() {
		l.base.Error("eventlog_invalid_category",
			zap.String("category", string(cat)),
			zap.String("key", key),
			zap.String("event", msg),
		)
		return
	}
	if l.env == EnvProduction && cat == INFO {
		return
	}

	fs := make([]zap.Field, 0, len(fields)+2)
	fs = append(fs, zap.String("category", string(cat)), zap.String("key", key))
	fs = append(fs, fields...)

	if ce := l.base.Check(cat.level(), msg); ce != nil {
		ce.Write(fs...)
	}
	if fl := l.fileLogger(cat); fl != nil {
		if ce := fl.Check(cat.level(), msg); ce != nil {
			ce.Write(fs...)
		}
	}
}

func (l *Log) fileLogger(cat Category) *zap.Logger {
	if l.dir == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if fl, ok := l.files[cat]; ok {
		return fl
	}
	fl, closer, err := logging.NewFileLogger(filepath.Join(l.dir, string(cat)+".log"))
	if err != nil {
		l.base.Error("eventlog_open_failed", zap.String("category", string(cat)), zap.Error(err))
		// remember the failure so we do not retry on every event
		l.files[cat] = nil
		return nil
	}
	l.files[cat] = fl
	l.closers = append(l.closers, closer)
	return fl
}

// Close flushes and closes the category files.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	for _, fl := range l.files {
		if fl != nil {
			_ = fl.Sync()
		}
	}
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	l.closers = nil
	l.files = make(map[Category]*zap.Logger)
	return err
}
