// 指示: miu200521358
// Package messages はCLI表示に使うメッセージキーと翻訳カタログを提供する。
package messages

// メッセージキー一覧。
const (
	HelpUsageTitle = "使い方"
	HelpUsage      = "使い方: mu_fabrik [オプション] <リグファイル>"

	LabelRigPath    = "リグ入力"
	LabelOutputPath = "ポーズ出力"
	LabelPreview    = "プレビュー出力"

	MessageLoadFailed     = "読み込み失敗"
	MessageSaveFailed     = "保存失敗"
	MessageSolveFailed    = "解決失敗"
	MessageConfigFailed   = "設定読み込み失敗"
	MessageInputRequired  = "リグファイルを指定してください"
	MessageWatchStarted   = "リグファイルの変更を監視しています: %s"
	MessageWatchReloading = "リグファイルの変更を検出しました: %s"

	LogSolveSuccess   = "ポーズ保存成功: %s (フレーム数=%d チェーン数=%d 分岐数=%d)"
	LogPreviewSuccess = "プレビュー保存成功: %s"
)
