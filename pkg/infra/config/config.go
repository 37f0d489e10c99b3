// 指示: miu200521358
// Package config はソルバー設定ファイルを読み込む。
package config

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

const (
	defaultMaxIterations = 10
	defaultTolerance     = 0.01
	defaultFps           = 30.0
	defaultFrames        = 1
	defaultLogLevel      = "info"
	defaultLanguage      = "ja"
	defaultPreviewSize   = 256
)

// SolverConfig はソルバーとCLIの設定を表す。
type SolverConfig struct {
	Solver  SolverSection  `toml:"solver"`
	Output  OutputSection  `toml:"output"`
	Logging LoggingSection `toml:"logging"`
}

// SolverSection は反復とアニメーションの設定を表す。
type SolverSection struct {
	MaxIterations int     `toml:"max_iterations"`
	Tolerance     float64 `toml:"tolerance"`
	Fps           float64 `toml:"fps"`
	StartFrame    int     `toml:"start_frame"`
	Frames        int     `toml:"frames"`
}

// OutputSection は出力の設定を表す。
type OutputSection struct {
	// PreviewSize が0の場合はプレビューを書き出さない。
	PreviewSize int `toml:"preview_size"`
}

// LoggingSection はログと表示言語の設定を表す。
type LoggingSection struct {
	Level    string `toml:"level"`
	Language string `toml:"language"`
}

// Default は既定設定を返す。
func Default() SolverConfig {
	return SolverConfig{
		Solver: SolverSection{
			MaxIterations: defaultMaxIterations,
			Tolerance:     defaultTolerance,
			Fps:           defaultFps,
			Frames:        defaultFrames,
		},
		Output: OutputSection{PreviewSize: defaultPreviewSize},
		Logging: LoggingSection{
			Level:    defaultLogLevel,
			Language: defaultLanguage,
		},
	}
}

// Load はTOML設定を読み込む。パスが空の場合は既定設定を返す。
// ファイルに無い項目は既定値のまま残る。
func Load(path string) (SolverConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, merr.Wrap(err, model.IkErrorConfigLoadFailed, merr.ErrorKindConfig, "設定ファイルを読み取れません: %s", path)
	}
	return Parse(b)
}

// Parse はTOMLバイト列を設定へ変換し、検証する。
func Parse(b []byte) (SolverConfig, error) {
	cfg := Default()
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Default(), merr.Wrap(err, model.IkErrorConfigLoadFailed, merr.ErrorKindConfig, "設定ファイルを解析できません")
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate は設定値の範囲を検証する。
func (c SolverConfig) Validate() error {
	switch {
	case c.Solver.MaxIterations <= 0:
		return invalidConfig("solver.max_iterations は正の値が必要です: %d", c.Solver.MaxIterations)
	case c.Solver.Tolerance <= 0:
		return invalidConfig("solver.tolerance は正の値が必要です: %g", c.Solver.Tolerance)
	case c.Solver.Fps <= 0:
		return invalidConfig("solver.fps は正の値が必要です: %g", c.Solver.Fps)
	case c.Solver.Frames <= 0:
		return invalidConfig("solver.frames は正の値が必要です: %d", c.Solver.Frames)
	case c.Output.PreviewSize < 0:
		return invalidConfig("output.preview_size は0以上が必要です: %d", c.Output.PreviewSize)
	}
	return nil
}

// Marshal は設定をTOMLへ変換する。
func (c SolverConfig) Marshal() ([]byte, error) {
	b, err := toml.Marshal(c)
	if err != nil {
		return nil, merr.Wrap(err, model.IkErrorConfigLoadFailed, merr.ErrorKindConfig, "設定を書き出せません")
	}
	return b, nil
}

func invalidConfig(format string, params ...any) error {
	return merr.NewError(model.IkErrorConfigLoadFailed, merr.ErrorKindConfig, format, params...)
}
