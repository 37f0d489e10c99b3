// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

const (
	// DefaultMaxIterations は到達可能時の最大反復回数。
	DefaultMaxIterations = 10
	// DefaultTolerance は先端とターゲットの収束判定距離。
	DefaultTolerance = 0.01
	// fabrikZeroDistance はゼロ距離とみなす閾値。
	fabrikZeroDistance = 1e-12
)

// SolveOptions はFABRIK反復の設定を表す。
type SolveOptions struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultSolveOptions は既定の反復設定を返す。
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{MaxIterations: DefaultMaxIterations, Tolerance: DefaultTolerance}
}

// normalized は未設定値を既定値で補う。
func (o SolveOptions) normalized() SolveOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// SolveOutcome はFABRIK反復の結果を表す。
type SolveOutcome struct {
	Positions   []mmath.Vec3
	Iterations  int
	Converged   bool
	Stretched   bool
	TipDistance float64
}

// SolvePositions はFABRIKでチェーンのジョイント位置を解く。
// 入力スライスは変更しない。ターゲットが届かない場合は直線上に伸ばす。
func SolvePositions(
	positions []mmath.Vec3,
	links []float64,
	target mmath.Vec3,
	options SolveOptions,
) (SolveOutcome, error) {
	if len(positions) < 2 {
		return SolveOutcome{}, merr.NewError(model.IkErrorChainTooShort, merr.ErrorKindInput,
			"ジョイント数が2未満のチェーンは解決できません: %d", len(positions))
	}
	if len(links) != len(positions)-1 {
		return SolveOutcome{}, merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput,
			"リンク数がジョイント数-1と一致しません: joints=%d links=%d", len(positions), len(links))
	}
	if !target.IsFinite() {
		return SolveOutcome{}, merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput,
			"ターゲットが有限値ではありません: %v", target)
	}
	options = options.normalized()

	solved := make([]mmath.Vec3, len(positions))
	copy(solved, positions)

	if solved[0].Distance(target) > mmath.TotalLength(links) {
		stretchTowardTarget(solved, links, target)
		return SolveOutcome{
			Positions:   solved,
			Stretched:   true,
			TipDistance: solved[len(solved)-1].Distance(target),
		}, nil
	}

	base := solved[0]
	diff := solved[len(solved)-1].Distance(target)
	iterations := 0
	for diff > options.Tolerance && iterations < options.MaxIterations {
		reachForward(solved, links, target)
		reachBackward(solved, links, base)
		diff = solved[len(solved)-1].Distance(target)
		iterations++
	}

	return SolveOutcome{
		Positions:   solved,
		Iterations:  iterations,
		Converged:   diff <= options.Tolerance,
		TipDistance: diff,
	}, nil
}

// stretchTowardTarget はルートからターゲットへ向けて各ジョイントを直線上に並べる。
func stretchTowardTarget(positions []mmath.Vec3, links []float64, target mmath.Vec3) {
	for i := 0; i < len(positions)-1; i++ {
		distance := target.Distance(positions[i])
		if distance <= fabrikZeroDistance {
			continue
		}
		positions[i+1] = positions[i].Lerp(target, links[i]/distance)
	}
}

// reachForward は先端をターゲットに固定し、先端側からルート側へ位置を詰める。
func reachForward(positions []mmath.Vec3, links []float64, target mmath.Vec3) {
	positions[len(positions)-1] = target
	for i := len(positions) - 2; i >= 0; i-- {
		distance := positions[i+1].Distance(positions[i])
		if distance <= fabrikZeroDistance {
			continue
		}
		positions[i] = positions[i+1].Lerp(positions[i], links[i]/distance)
	}
}

// reachBackward はルートを元位置に戻し、ルート側から先端側へ位置を詰める。
func reachBackward(positions []mmath.Vec3, links []float64, base mmath.Vec3) {
	positions[0] = base
	for i := 0; i < len(positions)-1; i++ {
		distance := positions[i+1].Distance(positions[i])
		if distance <= fabrikZeroDistance {
			continue
		}
		positions[i+1] = positions[i].Lerp(positions[i+1], links[i]/distance)
	}
}
