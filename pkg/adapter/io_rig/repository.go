// 指示: miu200521358
package io_rig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

// LoadProgressEventType はリグ読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeParsed は定義解析完了イベントを表す。
	LoadProgressEventTypeParsed LoadProgressEventType = "parsed"
	// LoadProgressEventTypeCompleted はリグ読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はリグ読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type          LoadProgressEventType
	FileSizeBytes int
	JointCount    int
	HandleCount   int
}

// rigFormat はリグファイルの形式を表す。
type rigFormat int

const (
	rigFormatUnknown rigFormat = iota
	rigFormatYaml
	rigFormatJson
	rigFormatGltf
)

// RigRepository はリグ定義の読み込みとポーズ保存を担う。
type RigRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

// NewRigRepository はRigRepositoryを生成する。
func NewRigRepository() *RigRepository {
	return &RigRepository{}
}

// SetLoadProgressReporter はリグ読込進捗受信コールバックを設定する。
func (r *RigRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *RigRepository) CanLoad(path string) bool {
	return detectRigFormat(path) != rigFormatUnknown
}

// InferName はパスから表示名を推定する。
func (r *RigRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はリグ定義を読み込む。
func (r *RigRepository) Load(path string) (*model.RigData, error) {
	format := detectRigFormat(path)
	if format == rigFormatUnknown {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput, "リグの拡張子が未対応です: %s", path)
	}
	loadTargetName := filepath.Base(path)
	logRigInfo("リグ読込開始: file=%s", loadTargetName)

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, merr.Wrap(err, model.IkErrorRigLoadFailed, merr.ErrorKindIO, "リグファイルが見つかりません: %s", path)
		}
		return nil, merr.Wrap(err, model.IkErrorRigLoadFailed, merr.ErrorKindIO, "リグファイルの読み取りに失敗しました: %s", path)
	}
	r.reportLoadProgress(LoadProgressEvent{Type: LoadProgressEventTypeFileReadComplete, FileSizeBytes: len(b)})
	logRigDebug("リグ読込ステップ: ファイル読み取り完了 bytes=%d", len(b))

	var rig *model.RigData
	switch format {
	case rigFormatYaml:
		rig, err = parseYamlRig(b)
	case rigFormatJson:
		rig, err = parseJsonRig(b)
	case rigFormatGltf:
		var handles []handleDocument
		handles, err = loadSidecarHandles(path)
		if err == nil {
			rig, err = parseGltfRig(b, handles)
		}
	}
	if err != nil {
		return nil, merr.Wrap(err, model.IkErrorRigLoadFailed, merr.ErrorKindInput, "リグ定義の解析に失敗しました: %s", loadTargetName)
	}
	if strings.TrimSpace(rig.Name) == "" {
		rig.Name = r.InferName(path)
	}
	rig.Path = path
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeParsed,
		FileSizeBytes: len(b),
		JointCount:    len(rig.Joints),
		HandleCount:   len(rig.Handles),
	})

	if len(rig.Handles) == 0 {
		logRigWarn("IKハンドルが定義されていません: file=%s", loadTargetName)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeCompleted,
		FileSizeBytes: len(b),
		JointCount:    len(rig.Joints),
		HandleCount:   len(rig.Handles),
	})
	logRigInfo("リグ読込完了: file=%s joints=%d handles=%d", loadTargetName, len(rig.Joints), len(rig.Handles))
	return rig, nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *RigRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// detectRigFormat は拡張子からリグ形式を判定する。
func detectRigFormat(path string) rigFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return rigFormatYaml
	case ".json":
		return rigFormatJson
	case ".glb", ".gltf", ".vrm":
		return rigFormatGltf
	default:
		return rigFormatUnknown
	}
}

// logRigInfo はリグ入出力のINFOログを出力する。
func logRigInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logRigDebug はリグ入出力のデバッグログを出力する。
func logRigDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logRigWarn はリグ入出力の警告ログを出力する。
func logRigWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
