// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

// PreSolve はIKハンドルのトポロジから解決計画を構築してキャッシュする。
// 失敗時は診断ログへ出力し、キャッシュ済み計画を破棄する。次のトポロジ再構築まで解決は行えない。
func (uc *FabrikUsecase) PreSolve(request PreSolveRequest) (*PreSolveResult, error) {
	uc.resetPlan()
	if uc.scene == nil {
		err := merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput, "シーングラフが設定されていません")
		logIkError("計画構築に失敗しました: %v", err)
		return nil, err
	}

	raws, err := ResolveRawChains(uc.scene, request.Handles)
	if err != nil {
		logIkError("IKチェーン解決に失敗しました: %v", err)
		return nil, err
	}
	reportSolveProgress(request.ProgressReporter, SolveProgressEvent{
		Type:       SolveProgressEventTypeChainsResolved,
		ChainCount: len(raws),
	})

	plan, err := BuildSolvePlan(raws, uc.scene.GetPosition)
	if err != nil {
		logIkError("解決計画の構築に失敗しました: %v", err)
		return nil, err
	}

	handles := make(map[string]model.IkHandle, len(request.Handles))
	for _, handle := range request.Handles {
		handles[handle.Name] = handle
	}
	uc.plan = plan
	uc.handles = handles

	result := &PreSolveResult{
		ChainCount:   len(plan.Chains),
		BranchJoints: append([]string(nil), plan.BranchJoints...),
	}
	for _, chain := range plan.Chains {
		if chain.IsSub {
			result.SubChainCount++
		}
	}
	reportSolveProgress(request.ProgressReporter, SolveProgressEvent{
		Type:        SolveProgressEventTypePlanBuilt,
		ChainCount:  result.ChainCount,
		BranchCount: len(result.BranchJoints),
	})
	logIkInfo("解決計画を構築しました: chains=%d sub=%d branches=%d",
		result.ChainCount, result.SubChainCount, len(result.BranchJoints))
	if logger := logging.DefaultLogger(); logger != nil && logger.IsDebugEnabled() {
		for i, chain := range plan.Chains {
			logIkDebug("  [%02d] %s links=%v", i, chain.String(), chain.Links)
		}
	}
	return result, nil
}
