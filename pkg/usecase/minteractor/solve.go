// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

// SolveFrame はキャッシュ済み計画に従い1フレーム分のチェーンを解決し、シーングラフへ書き戻す。
// 途中で失敗した場合、それまでの書き込みは巻き戻さない。
func (uc *FabrikUsecase) SolveFrame(request SolveFrameRequest) (*SolveFrameResult, error) {
	if uc.plan.IsEmpty() {
		err := merr.NewError(model.IkErrorPlanMissing, merr.ErrorKindInput, "解決計画が準備されていません")
		logIkError("フレーム%dの解決をスキップしました: %v", request.Frame, err)
		return nil, err
	}

	plan := uc.plan
	ctx := model.NewSolveContext(plan, request.Frame)
	reports := make([]model.ChainReport, 0, len(plan.Chains))
	for i, chain := range plan.Chains {
		report, err := uc.solveChain(ctx, i, chain, request.Targets)
		if err != nil {
			logIkError("フレーム%dの解決を中断しました: %v", request.Frame, err)
			return nil, err
		}
		reports = append(reports, report)
		reportSolveProgress(request.ProgressReporter, SolveProgressEvent{
			Type:       SolveProgressEventTypeChainSolved,
			Frame:      request.Frame,
			ChainIndex: i,
			ChainCount: len(plan.Chains),
		})
	}

	joints := make([]model.Joint, 0)
	for _, path := range plan.JointPaths() {
		position, err := uc.scene.GetPosition(path)
		if err != nil {
			return nil, merr.Wrap(err, model.IkErrorJointPositionMissing, merr.ErrorKindTopology,
				"ジョイント位置を取得できません: %s", path)
		}
		joints = append(joints, model.Joint{Path: path, Position: position})
	}

	reportSolveProgress(request.ProgressReporter, SolveProgressEvent{
		Type:       SolveProgressEventTypeFrameSolved,
		Frame:      request.Frame,
		ChainCount: len(plan.Chains),
	})
	return &SolveFrameResult{Pose: model.FramePose{
		Frame:  request.Frame,
		Joints: joints,
		Chains: reports,
	}}, nil
}

// solveChain は1チェーンを Pending -> Solving -> Done と遷移させて解決する。
func (uc *FabrikUsecase) solveChain(
	ctx *model.SolveContext,
	index int,
	chain *model.Chain,
	targets map[string]mmath.Vec3,
) (model.ChainReport, error) {
	if ctx.States[index] != model.ChainStatePending {
		return model.ChainReport{}, merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput,
			"同一フレームでチェーンを再解決しようとしました: %s state=%s", chain.String(), ctx.States[index])
	}

	target, err := uc.resolveChainTarget(ctx, chain, targets)
	if err != nil {
		return model.ChainReport{}, err
	}
	ctx.States[index] = model.ChainStateSolving

	positions, err := readPositions(chain.Joints, uc.scene.GetPosition)
	if err != nil {
		return model.ChainReport{}, err
	}
	outcome, err := SolvePositions(positions, chain.Links, target, uc.options)
	if err != nil {
		return model.ChainReport{}, err
	}

	if chain.ContributesTo != "" {
		ctx.Contribute(chain.ContributesTo, outcome.Positions[chain.ContributionIndex])
	}
	for i := chain.WriteStartIndex(); i < chain.Len(); i++ {
		if err := uc.scene.SetPosition(chain.Joints[i], outcome.Positions[i]); err != nil {
			return model.ChainReport{}, merr.Wrap(err, model.IkErrorJointPositionMissing, merr.ErrorKindTopology,
				"ジョイント位置を書き込めません: %s", chain.Joints[i])
		}
	}
	ctx.States[index] = model.ChainStateDone

	if !outcome.Converged && !outcome.Stretched {
		logIkDebug("チェーンが反復上限で収束しませんでした: %s distance=%.5f", chain.String(), outcome.TipDistance)
	}
	label := chain.HandleName
	if chain.IsSub {
		label = chain.TargetJoint
	}
	return model.ChainReport{
		Label:       label,
		Target:      target,
		Iterations:  outcome.Iterations,
		Converged:   outcome.Converged,
		Stretched:   outcome.Stretched,
		TipDistance: outcome.TipDistance,
	}, nil
}

// resolveChainTarget はチェーンのターゲットを決める。
// 派生チェーンは先端分岐ジョイントへの寄与がすべて揃ってから平均を使う。
func (uc *FabrikUsecase) resolveChainTarget(
	ctx *model.SolveContext,
	chain *model.Chain,
	targets map[string]mmath.Vec3,
) (mmath.Vec3, error) {
	if !chain.IsSub {
		if target, ok := targets[chain.HandleName]; ok {
			return target, nil
		}
		return chain.FixedTarget, nil
	}

	expected := uc.plan.ExpectedContributions[chain.TargetJoint]
	received := ctx.ContributionCount(chain.TargetJoint)
	if expected == 0 || received != expected {
		return mmath.Vec3{}, merr.NewTopologyError(model.IkErrorBranchContributionIncomplete,
			"分岐ジョイントへの寄与が揃っていません: joint=%s expected=%d received=%d",
			chain.TargetJoint, expected, received)
	}
	target, _ := ctx.AveragedTarget(chain.TargetJoint)
	if !target.IsFinite() {
		logIkWarn("分岐ジョイントの平均ターゲットが不正です: joint=%s target=%v", chain.TargetJoint, target)
	}
	return target, nil
}
