// 指示: miu200521358
// Package merr はエラーIDとエラー種別を保持するエラー型を提供する。
package merr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind はエラー種別を表す。
type ErrorKind string

const (
	// ErrorKindTopology はチェーン構造の不正を表す。
	ErrorKindTopology ErrorKind = "topology"
	// ErrorKindInput は入力値の不正を表す。
	ErrorKindInput ErrorKind = "input"
	// ErrorKindIO は読み書き失敗を表す。
	ErrorKindIO ErrorKind = "io"
	// ErrorKindConfig は設定不正を表す。
	ErrorKindConfig ErrorKind = "config"
)

// MError はエラーIDと種別付きのエラーを表す。
type MError struct {
	ID      string
	Kind    ErrorKind
	Message string
	cause   error
}

// Error はエラーメッセージを返す。
func (e *MError) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.ID, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.ID, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *MError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Format は %+v 指定時にスタックトレースを含めて出力する。
func (e *MError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.cause != nil {
			fmt.Fprintf(s, "[%s] %s: %+v", e.ID, e.Message, e.cause)
			return
		}
		fmt.Fprint(s, e.Error())
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// NewError はスタック付きのエラーを生成する。
func NewError(id string, kind ErrorKind, format string, params ...any) error {
	return &MError{
		ID:      id,
		Kind:    kind,
		Message: fmt.Sprintf(format, params...),
		cause:   pkgerrors.WithStack(errors.New(id)),
	}
}

// Wrap は原因エラーにIDと種別を付与する。
// 原因がnilの場合はnilを返す。
func Wrap(cause error, id string, kind ErrorKind, format string, params ...any) error {
	if cause == nil {
		return nil
	}
	return &MError{
		ID:      id,
		Kind:    kind,
		Message: fmt.Sprintf(format, params...),
		cause:   pkgerrors.WithStack(cause),
	}
}

// NewTopologyError はチェーン構造エラーを生成する。
func NewTopologyError(id string, format string, params ...any) error {
	return NewError(id, ErrorKindTopology, format, params...)
}

// ExtractErrorID はエラー連鎖から最初のエラーIDを取り出す。
func ExtractErrorID(err error) string {
	var merr *MError
	if errors.As(err, &merr) {
		return merr.ID
	}
	return ""
}

// ExtractErrorKind はエラー連鎖から最初のエラー種別を取り出す。
func ExtractErrorKind(err error) ErrorKind {
	var merr *MError
	if errors.As(err, &merr) {
		return merr.Kind
	}
	return ""
}

// IsTopologyError はチェーン構造エラーか判定する。
func IsTopologyError(err error) bool {
	return ExtractErrorKind(err) == ErrorKindTopology
}
