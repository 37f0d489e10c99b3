// 指示: miu200521358
// Package mlogging は log/slog を使ったロガー実装を提供する。
package mlogging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"

	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
)

const appAttrValue = "mu_fabrik"

// Logger は slog ベースのロガーを表す。
type Logger struct {
	level   *slog.LevelVar
	slogger *slog.Logger
}

// NewLogger はロガーを生成する。w がnilの場合は標準エラー出力へ書き出す。
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	level := &slog.LevelVar{}
	level.Set(slog.Level(logging.LOG_LEVEL_INFO))

	output := termenv.NewOutput(w)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				lvl, ok := attr.Value.Any().(slog.Level)
				if !ok {
					return attr
				}
				return slog.String(slog.LevelKey, colorLevel(output, lvl))
			}
			return attr
		},
	})

	return &Logger{
		level:   level,
		slogger: slog.New(handler).With(slog.String("app", appAttrValue)),
	}
}

// colorLevel はレベル名を端末色付きで返す。色非対応端末ではそのまま返る。
func colorLevel(output *termenv.Output, level slog.Level) string {
	name := level.String()
	switch {
	case level >= slog.LevelError:
		return output.String(name).Foreground(termenv.ANSIRed).Bold().String()
	case level >= slog.LevelWarn:
		return output.String(name).Foreground(termenv.ANSIYellow).String()
	case level >= slog.LevelInfo:
		return output.String(name).Foreground(termenv.ANSICyan).String()
	default:
		return output.String(name).Faint().String()
	}
}

// Slog は内部の slog.Logger を返す。
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}

// Debug はデバッグログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.log(slog.LevelDebug, format, params...)
}

// Info は情報ログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.log(slog.LevelInfo, format, params...)
}

// Warn は警告ログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.log(slog.LevelWarn, format, params...)
}

// Error はエラーログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.log(slog.LevelError, format, params...)
}

// SetLevel は出力レベルを設定する。
func (l *Logger) SetLevel(level logging.LogLevel) {
	l.level.Set(slog.Level(level))
}

// Level は現在の出力レベルを返す。
func (l *Logger) Level() logging.LogLevel {
	return logging.LogLevel(l.level.Level())
}

// IsDebugEnabled はデバッグログが出力対象か判定する。
func (l *Logger) IsDebugEnabled() bool {
	return l.level.Level() <= slog.LevelDebug
}

func (l *Logger) log(level slog.Level, format string, params ...any) {
	if l == nil || l.slogger == nil {
		return
	}
	ctx := context.Background()
	if !l.slogger.Enabled(ctx, level) {
		return
	}
	l.slogger.Log(ctx, level, fmt.Sprintf(format, params...))
}
