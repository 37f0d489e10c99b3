// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"

// logIkInfo はIK解決のINFOログを出力する。
func logIkInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logIkDebug はIK解決のデバッグログを出力する。
func logIkDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logIkWarn はIK解決の警告ログを出力する。
func logIkWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

// logIkError はIK解決のエラーをホストの診断チャネルへ出力する。
func logIkError(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Error(format, params...)
}
