package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: JSON lines in <logDir>/checkwatch.log.
func NewLogger(logDir string) (*zap.Logger, error) {
	l, _, err := NewFileLogger(filepath.Join(logDir, "checkwatch.log"))
	return l, err
}

// NewFileLogger returns a JSON logger appending to a rotating file at path.
// The closer releases the file.
func NewFileLogger(path string) (*zap.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(lj), zap.InfoLevel)
	return zap.New(core), lj, nil
}
