// Package logger builds the process-wide zap logger: a colored console core,
// an optional JSON file core, and a hook that forwards entries to the
// notification channel.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

var (
	// Log is the root logger. Named loggers derive from it.
	Log     *types.Logger
	logHook types.LogHook
)

// Config controls how Init builds the root logger.
type Config struct {
	Debug        bool
	TimeLocation *time.Location // zone for log timestamps, UTC when nil
	LogToFile    bool
	LogsDir      string // relative to the working directory
}

// SetLogHook installs a hook invoked for every log entry. Installing a new
// hook replaces the previous one.
func SetLogHook(hook types.LogHook) {
	Log.Debug("Log hook set")
	logHook = hook
}

// Init builds the root logger. It must run before Named is used.
func Init(config Config) error {
	var l types.Logger
	l.Name = "main"

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	l.LogsPath = wd
	if config.LogsDir != "" {
		l.LogsPath = filepath.Join(wd, config.LogsDir)
	}
	if err = os.MkdirAll(l.LogsPath, os.ModePerm); err != nil {
		return err
	}

	loc := config.TimeLocation
	if loc == nil {
		loc = time.UTC
	}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     timeEncoder(loc),
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	level := zapcore.InfoLevel
	if config.Debug {
		level = zapcore.DebugLevel
	}

	consoleEncoderConfig := encoderConfig
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.Lock(os.Stdout), level),
	}

	if config.LogToFile {
		// One file per day, plain JSON without console colors.
		logPath := filepath.Join(l.LogsPath, fmt.Sprintf("bot-%s.log", time.Now().In(loc).Format("2006-01-02")))
		fileWriter, errOpenFile := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if errOpenFile != nil {
			return errOpenFile
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(fileWriter), level))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.Hooks(func(entry zapcore.Entry) error {
		if logHook != nil {
			logHook(types.Log{
				Timestamp:  entry.Time,
				Caller:     entry.Caller.String(),
				LoggerName: entry.LoggerName,
				Level:      entry.Level,
				Message:    entry.Message,
			})
		}
		return nil
	}))

	l.SugaredLogger = log.Named(l.Name).Sugar()
	Log = &l

	return nil
}

// Named derives a child logger ("bot", "notify", etc.) from the root logger.
func Named(name string) (*types.Logger, error) {
	if Log == nil {
		return nil, fmt.Errorf("logger is not initialized")
	}
	return &types.Logger{
		SugaredLogger: Log.SugaredLogger.Named(name),
		LogsPath:      Log.LogsPath,
		Name:          name,
	}, nil
}

func timeEncoder(loc *time.Location) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02 15:04:05"))
	}
}
