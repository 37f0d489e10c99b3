// 指示: miu200521358
package model

import "github.com/miu200521358/mu_fabrik/pkg/domain/mmath"

// ChainReport は1チェーン分の解決結果を表す。
type ChainReport struct {
	Label       string
	Target      mmath.Vec3
	Iterations  int
	Converged   bool
	Stretched   bool
	TipDistance float64
}

// FramePose は1フレーム分の解決済みポーズを表す。
type FramePose struct {
	Frame  int
	Joints []Joint
	Chains []ChainReport
}

// PoseSequence は解決済みポーズの列を表す。
type PoseSequence struct {
	RigName string
	Frames  []FramePose
}

// LastFrame は最後のフレームを返す。
func (s *PoseSequence) LastFrame() (FramePose, bool) {
	if s == nil || len(s.Frames) == 0 {
		return FramePose{}, false
	}
	return s.Frames[len(s.Frames)-1], true
}
