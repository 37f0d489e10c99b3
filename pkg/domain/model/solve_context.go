// 指示: miu200521358
package model

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
)

// ChainState はフレーム内のチェーン解決状態を表す。
type ChainState int

const (
	// ChainStatePending は未解決。
	ChainStatePending ChainState = iota
	// ChainStateSolving は解決中。
	ChainStateSolving
	// ChainStateDone は解決済み。
	ChainStateDone
)

// String は状態名を返す。
func (s ChainState) String() string {
	switch s {
	case ChainStatePending:
		return "pending"
	case ChainStateSolving:
		return "solving"
	case ChainStateDone:
		return "done"
	default:
		return "unknown"
	}
}

// SolveContext は1フレーム分の分岐寄与と解決状態を保持する。
// フレームごとに NewSolveContext で作り直し、フレームをまたいで使わない。
type SolveContext struct {
	Frame         int
	Contributions map[string][]mmath.Vec3
	States        []ChainState
}

// NewSolveContext は計画に対応する空のコンテキストを生成する。
func NewSolveContext(plan *SolvePlan, frame int) *SolveContext {
	ctx := &SolveContext{
		Frame:         frame,
		Contributions: map[string][]mmath.Vec3{},
	}
	if plan == nil {
		return ctx
	}
	ctx.States = make([]ChainState, len(plan.Chains))
	for _, joint := range plan.BranchJoints {
		ctx.Contributions[joint] = []mmath.Vec3{}
	}
	return ctx
}

// Contribute は分岐ジョイントへ解決位置を追加する。
func (c *SolveContext) Contribute(joint string, position mmath.Vec3) {
	c.Contributions[joint] = append(c.Contributions[joint], position)
}

// ContributionCount は分岐ジョイントへの寄与数を返す。
func (c *SolveContext) ContributionCount(joint string) int {
	return len(c.Contributions[joint])
}

// AveragedTarget は分岐ジョイントへの寄与の平均を返す。
func (c *SolveContext) AveragedTarget(joint string) (mmath.Vec3, bool) {
	return mmath.Mean(c.Contributions[joint])
}
