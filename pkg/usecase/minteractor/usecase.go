// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

// FabrikUsecaseDeps はFABRIK解決ユースケースの依存を表す。
type FabrikUsecaseDeps struct {
	Scene      moutput.ISceneGraph
	RigReader  moutput.IRigReader
	PoseWriter moutput.IPoseWriter
	Options    SolveOptions
}

// FabrikUsecase はチェーン探索とフレームごとのFABRIK解決をまとめたユースケースを表す。
// ホストの評価スケジューラから単一スレッドで呼ばれる前提で、排他制御は行わない。
type FabrikUsecase struct {
	scene      moutput.ISceneGraph
	rigReader  moutput.IRigReader
	poseWriter moutput.IPoseWriter
	options    SolveOptions
	plan       *model.SolvePlan
	handles    map[string]model.IkHandle
}

// NewFabrikUsecase はFABRIK解決ユースケースを生成する。
func NewFabrikUsecase(deps FabrikUsecaseDeps) *FabrikUsecase {
	return &FabrikUsecase{
		scene:      deps.Scene,
		rigReader:  deps.RigReader,
		poseWriter: deps.PoseWriter,
		options:    deps.Options.normalized(),
		handles:    map[string]model.IkHandle{},
	}
}

// SetScene はシーングラフを差し替える。計画は破棄する。
func (uc *FabrikUsecase) SetScene(scene moutput.ISceneGraph) {
	uc.scene = scene
	uc.resetPlan()
}

// Options は反復設定を返す。
func (uc *FabrikUsecase) Options() SolveOptions {
	return uc.options
}

// Plan はキャッシュ済み解決計画の複製を返す。未準備の場合はnilを返す。
func (uc *FabrikUsecase) Plan() (*model.SolvePlan, error) {
	if uc.plan == nil {
		return nil, nil
	}
	return uc.plan.Clone()
}

// resetPlan はキャッシュ済み計画を破棄する。
func (uc *FabrikUsecase) resetPlan() {
	uc.plan = nil
	uc.handles = map[string]model.IkHandle{}
}
