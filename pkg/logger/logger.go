package logger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogFile = "logs/p2p-share.log"

var (
	Log   *zap.Logger
	Sugar *zap.SugaredLogger
)

func init() {
	path := strings.TrimSpace(os.Getenv("P2P_LOG_FILE"))
	if path == "" {
		path = defaultLogFile
	}

	levelStr := strings.TrimSpace(os.Getenv("P2P_LOG_LEVEL"))
	if levelStr == "" {
		levelStr = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}

	if err := Init(path, levelStr); err != nil {
		panic(err)
	}
}

// Init rebuilds the package loggers to append to path at the given level.
// An empty or unparsable level falls back to info.
func Init(path string, level string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006/01/02 15:04:05"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// Console encoding keeps the file readable for operators tailing it
	fileEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	lvl := zapcore.InfoLevel
	if level != "" {
		_ = lvl.UnmarshalText([]byte(strings.ToLower(level)))
	}

	core := zapcore.NewCore(
		fileEncoder,
		zapcore.AddSync(file),
		lvl,
	)

	Log = zap.New(core, zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}
