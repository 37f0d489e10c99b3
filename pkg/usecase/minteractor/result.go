// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

// SolveProgressEventType は解決処理の進捗イベント種別を表す。
type SolveProgressEventType string

const (
	// SolveProgressEventTypeRigLoaded はリグ読み込み完了イベントを表す。
	SolveProgressEventTypeRigLoaded SolveProgressEventType = "rig_loaded"
	// SolveProgressEventTypeChainsResolved はハンドルごとのジョイント列解決完了イベントを表す。
	SolveProgressEventTypeChainsResolved SolveProgressEventType = "chains_resolved"
	// SolveProgressEventTypePlanBuilt は解決計画構築完了イベントを表す。
	SolveProgressEventTypePlanBuilt SolveProgressEventType = "plan_built"
	// SolveProgressEventTypeChainSolved はチェーン解決進行イベントを表す。
	SolveProgressEventTypeChainSolved SolveProgressEventType = "chain_solved"
	// SolveProgressEventTypeFrameSolved はフレーム解決完了イベントを表す。
	SolveProgressEventTypeFrameSolved SolveProgressEventType = "frame_solved"
	// SolveProgressEventTypePoseSaved はポーズ保存完了イベントを表す。
	SolveProgressEventTypePoseSaved SolveProgressEventType = "pose_saved"
)

// SolveProgressEvent は解決処理の進捗イベントを表す。
type SolveProgressEvent struct {
	Type        SolveProgressEventType
	Frame       int
	ChainIndex  int
	ChainCount  int
	BranchCount int
}

// ISolveProgressReporter は解決処理の進捗通知契約を表す。
type ISolveProgressReporter interface {
	// ReportSolveProgress は解決処理進捗を通知する。
	ReportSolveProgress(event SolveProgressEvent)
}

// PreSolveRequest はトポロジ変更時の計画構築要求を表す。
type PreSolveRequest struct {
	Handles          []model.IkHandle
	ProgressReporter ISolveProgressReporter
}

// PreSolveResult は計画構築結果を表す。
type PreSolveResult struct {
	ChainCount    int
	SubChainCount int
	BranchJoints  []string
}

// SolveFrameRequest はフレームごとの解決要求を表す。
type SolveFrameRequest struct {
	Frame int
	// Targets はハンドル名ごとのターゲット上書き。無いハンドルは計画構築時の位置を使う。
	Targets          map[string]mmath.Vec3
	ProgressReporter ISolveProgressReporter
}

// SolveFrameResult はフレーム解決結果を表す。
type SolveFrameResult struct {
	Pose model.FramePose
}

// reportSolveProgress は解決処理の進捗を通知する。
func reportSolveProgress(reporter ISolveProgressReporter, event SolveProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportSolveProgress(event)
}
