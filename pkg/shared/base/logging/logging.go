// 指示: miu200521358
// Package logging はロガー契約とプロセス既定ロガーを提供する。
package logging

import "sync/atomic"

// LogLevel はログレベルを表す。
type LogLevel int

const (
	// LOG_LEVEL_DEBUG はデバッグレベル。
	LOG_LEVEL_DEBUG LogLevel = -4
	// LOG_LEVEL_INFO は情報レベル。
	LOG_LEVEL_INFO LogLevel = 0
	// LOG_LEVEL_WARN は警告レベル。
	LOG_LEVEL_WARN LogLevel = 4
	// LOG_LEVEL_ERROR はエラーレベル。
	LOG_LEVEL_ERROR LogLevel = 8
)

// String はレベル名を返す。
func (l LogLevel) String() string {
	switch {
	case l <= LOG_LEVEL_DEBUG:
		return "DEBUG"
	case l <= LOG_LEVEL_INFO:
		return "INFO"
	case l <= LOG_LEVEL_WARN:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLogLevel は設定文字列からログレベルを解決する。未知の値は INFO とする。
func ParseLogLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return LOG_LEVEL_DEBUG
	case "warn", "WARN", "warning":
		return LOG_LEVEL_WARN
	case "error", "ERROR":
		return LOG_LEVEL_ERROR
	default:
		return LOG_LEVEL_INFO
	}
}

// LevelFromFlags はCLIの冗長度フラグからログレベルを返す。
// vv, v, q の順に評価し、どれも無ければ WARN とする。
func LevelFromFlags(vv, v, q bool) LogLevel {
	switch {
	case vv:
		return LOG_LEVEL_DEBUG
	case v:
		return LOG_LEVEL_INFO
	case q:
		return LOG_LEVEL_ERROR
	default:
		return LOG_LEVEL_WARN
	}
}

// ILogger はログ出力契約を表す。
type ILogger interface {
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	SetLevel(level LogLevel)
	Level() LogLevel
	IsDebugEnabled() bool
}

type loggerHolder struct {
	logger ILogger
}

var defaultLogger atomic.Pointer[loggerHolder]

// DefaultLogger は既定ロガーを返す。未設定の場合はnilを返す。
func DefaultLogger() ILogger {
	holder := defaultLogger.Load()
	if holder == nil {
		return nil
	}
	return holder.logger
}

// SetDefaultLogger は既定ロガーを差し替える。
func SetDefaultLogger(logger ILogger) {
	defaultLogger.Store(&loggerHolder{logger: logger})
}
