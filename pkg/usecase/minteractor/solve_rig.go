// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

// SceneBuilder はリグ定義からシーングラフを組み立てる。
type SceneBuilder func(rig *model.RigData) (moutput.ISceneGraph, error)

// SolveRigRequest はリグファイル単位の解決要求を表す。
type SolveRigRequest struct {
	RigPath    string
	OutputPath string
	RigData    *model.RigData
	Reader     moutput.IRigReader
	Writer     moutput.IPoseWriter
	// SceneBuilder が nil の場合は設定済みのシーングラフをそのまま使う。
	SceneBuilder SceneBuilder
	Animation    AnimationRequest
	// PreviewSize が正の場合、最終フレームのプレビューBMPも書き出す。
	PreviewSize int
}

// SolveRigResult はリグファイル単位の解決結果を表す。
type SolveRigResult struct {
	Rig         *model.RigData
	Poses       *model.PoseSequence
	PreSolve    *PreSolveResult
	OutputPath  string
	PreviewPath string
}

// SolveRig はリグを読み込み、計画構築からフレーム解決、保存までを通しで行う。
func (uc *FabrikUsecase) SolveRig(request SolveRigRequest) (*SolveRigResult, error) {
	if strings.TrimSpace(request.RigPath) == "" && request.RigData == nil {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput, "入力リグパスが未指定です")
	}

	rig := request.RigData
	if rig == nil {
		loaded, err := uc.LoadRig(request.Reader, request.RigPath)
		if err != nil {
			logIkError("リグの読み込みに失敗しました: %v", err)
			return nil, err
		}
		rig = loaded
	}
	rigPath := request.RigPath
	if strings.TrimSpace(rigPath) == "" {
		rigPath = rig.Path
	}
	reportSolveProgress(request.Animation.ProgressReporter, SolveProgressEvent{
		Type:       SolveProgressEventTypeRigLoaded,
		ChainCount: len(rig.Handles),
	})

	outputPath, err := ResolvePoseOutputPath(rigPath, request.OutputPath)
	if err != nil {
		return nil, merr.Wrap(err, model.IkErrorRigSaveFailed, merr.ErrorKindInput, "保存先を決定できません")
	}

	if request.SceneBuilder != nil {
		scene, err := request.SceneBuilder(rig)
		if err != nil {
			return nil, merr.Wrap(err, model.IkErrorRigLoadFailed, merr.ErrorKindInput,
				"シーングラフを構築できません: %s", rig.Name)
		}
		uc.SetScene(scene)
	}

	preSolve, err := uc.PreSolve(PreSolveRequest{
		Handles:          rig.SortedHandles(),
		ProgressReporter: request.Animation.ProgressReporter,
	})
	if err != nil {
		return nil, err
	}

	poses, err := uc.SolveAnimation(rig.Name, request.Animation)
	if err != nil {
		return nil, err
	}
	if err := uc.SavePoses(request.Writer, outputPath, poses); err != nil {
		logIkError("ポーズの保存に失敗しました: %v", err)
		return nil, err
	}
	reportSolveProgress(request.Animation.ProgressReporter, SolveProgressEvent{
		Type:       SolveProgressEventTypePoseSaved,
		Frame:      len(poses.Frames),
		ChainCount: preSolve.ChainCount,
	})
	logIkInfo("ポーズを保存しました: %s frames=%d", outputPath, len(poses.Frames))

	result := &SolveRigResult{
		Rig:        rig,
		Poses:      poses,
		PreSolve:   preSolve,
		OutputPath: outputPath,
	}
	if request.PreviewSize > 0 {
		last, _ := poses.LastFrame()
		previewPath := BuildPreviewPath(outputPath)
		if err := WritePreviewBitmap(previewPath, last, request.PreviewSize); err != nil {
			logIkWarn("プレビューを書き出せませんでした: %v", err)
		} else {
			result.PreviewPath = previewPath
		}
	}
	return result, nil
}
