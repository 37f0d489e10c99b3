// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
)

// Chain はルートから先端まで順序付けたジョイント列を表す。
type Chain struct {
	// Joints はルートから先端までのジョイントパス。
	Joints []string
	// Links は連続ジョイント間距離。長さは len(Joints)-1。
	Links []float64
	// IsSub は分岐ジョイントを先端とする派生チェーンか。
	IsSub bool
	// HandleName は先端を制御するIKハンドル名。派生チェーンでは空。
	HandleName string
	// FixedTarget はIKハンドルから取得した固定ターゲット。
	FixedTarget mmath.Vec3
	// TargetJoint は派生チェーンのターゲットとなる分岐ジョイント(=先端)。
	TargetJoint string
	// ContributesTo は解決後の位置を寄与する分岐ジョイント。無ければ空。
	ContributesTo string
	// ContributionIndex は ContributesTo の Joints 内インデックス。無ければ -1。
	ContributionIndex int
}

// Root はルートジョイントのパスを返す。
func (c *Chain) Root() string {
	return c.Joints[0]
}

// Tip は先端ジョイントのパスを返す。
func (c *Chain) Tip() string {
	return c.Joints[len(c.Joints)-1]
}

// Len はジョイント数を返す。
func (c *Chain) Len() int {
	return len(c.Joints)
}

// TotalLength はリンク長の合計を返す。
func (c *Chain) TotalLength() float64 {
	return mmath.TotalLength(c.Links)
}

// WriteStartIndex は書き戻し対象の先頭インデックスを返す。
// 寄与ジョイント以下(ルート側)は親チェーンが所有するため書き戻さない。
func (c *Chain) WriteStartIndex() int {
	if c.ContributesTo == "" {
		return 0
	}
	return c.ContributionIndex + 1
}

// String はデバッグ用の文字列表現を返す。
func (c *Chain) String() string {
	kind := "handle:" + c.HandleName
	if c.IsSub {
		kind = "sub:" + c.TargetJoint
	}
	return fmt.Sprintf("Chain{%s %v -> %s}", kind, c.Joints, c.ContributesTo)
}

// SolvePlan はトポロジ変更ごとに作り直す解決計画を表す。
type SolvePlan struct {
	// Chains は解決順に並んだチェーン。ハンドルチェーン、派生チェーン(葉側から)の順。
	Chains []*Chain
	// BranchJoints は祖先数の少ない順に並んだ分岐ジョイント。
	BranchJoints []string
	// ExpectedContributions は分岐ジョイントごとの寄与チェーン数。
	ExpectedContributions map[string]int
}

// IsEmpty は解決対象チェーンが無いか判定する。
func (p *SolvePlan) IsEmpty() bool {
	return p == nil || len(p.Chains) == 0
}

// IsBranchJoint は分岐ジョイントか判定する。
func (p *SolvePlan) IsBranchJoint(path string) bool {
	if p == nil {
		return false
	}
	_, ok := p.ExpectedContributions[path]
	return ok
}

// JointPaths は計画に含まれる全ジョイントを初出順で返す。
func (p *SolvePlan) JointPaths() []string {
	if p == nil {
		return nil
	}
	seen := map[string]struct{}{}
	paths := make([]string, 0)
	for _, chain := range p.Chains {
		for _, path := range chain.Joints {
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}
	return paths
}

// Clone は計画のディープコピーを返す。
func (p *SolvePlan) Clone() (*SolvePlan, error) {
	if p == nil {
		return nil, nil
	}
	var cloned SolvePlan
	if err := deepcopy.Copy(&cloned, p); err != nil {
		return nil, fmt.Errorf("解決計画の複製に失敗しました: %w", err)
	}
	return &cloned, nil
}
