// 指示: miu200521358
package messages

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// englishMessages は英語表示用の翻訳。
var englishMessages = map[string]string{
	HelpUsageTitle:        "Usage",
	HelpUsage:             "usage: mu_fabrik [options] <rig file>",
	LabelRigPath:          "Rig input",
	LabelOutputPath:       "Pose output",
	LabelPreview:          "Preview output",
	MessageLoadFailed:     "Load failed",
	MessageSaveFailed:     "Save failed",
	MessageSolveFailed:    "Solve failed",
	MessageConfigFailed:   "Config load failed",
	MessageInputRequired:  "Please specify a rig file",
	MessageWatchStarted:   "Watching rig file for changes: %s",
	MessageWatchReloading: "Rig file changed: %s",
	LogSolveSuccess:       "Pose saved: %s (frames=%d chains=%d branches=%d)",
	LogPreviewSuccess:     "Preview saved: %s",
}

func init() {
	for key := range englishMessages {
		_ = message.SetString(language.Japanese, key, key)
	}
	for key, text := range englishMessages {
		_ = message.SetString(language.English, key, text)
	}
}

// ResolveLanguage は言語名から表示言語を決める。未知の値は日本語とする。
func ResolveLanguage(name string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(name))
	if err != nil {
		return language.Japanese
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return language.English
	}
	return language.Japanese
}

// NewPrinter は言語名に応じたメッセージプリンタを生成する。
func NewPrinter(name string) *message.Printer {
	return message.NewPrinter(ResolveLanguage(name))
}
