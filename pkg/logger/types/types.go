// Package types holds the logger value types, split out so services can
// accept a logger or a hook without importing the initialization code.
package types

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named sugared logger together with the directory its file
// output lives in.
type Logger struct {
	*zap.SugaredLogger
	LogsPath string
	Name     string
}

// Log is one entry as seen by a LogHook.
type Log struct {
	Timestamp  time.Time
	Caller     string
	LoggerName string
	Level      zapcore.Level
	Message    string
}

// LogHook receives every entry the root logger emits, regardless of level.
// Hooks filter by level themselves.
type LogHook func(log Log)
