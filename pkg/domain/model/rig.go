// 指示: miu200521358
package model

import (
	"sort"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
)

// TargetTrackSource はIKハンドルターゲットの軸ごとの式を表す。
// 空の軸は固定ターゲットの値を使う。
type TargetTrackSource struct {
	X string
	Y string
	Z string
}

// IsEmpty は式が1つも無いか判定する。
func (s TargetTrackSource) IsEmpty() bool {
	return s.X == "" && s.Y == "" && s.Z == ""
}

// IkHandle はホスト側で定義されたIKハンドルを表す。
type IkHandle struct {
	Name string
	// EffectorPath はエンドエフェクタのDAGパス。親ジョイントの直下にある。
	EffectorPath string
	// RootPath はチェーンのルートジョイントのパス。
	RootPath string
	// Priority は登録順。値が小さいほど先に解決する。
	Priority int
	// Target はハンドルのワールド位置。
	Target mmath.Vec3
	// Track はフレームごとのターゲット式。
	Track TargetTrackSource
}

// RigJoint はリグファイル上のジョイント定義を表す。
type RigJoint struct {
	Path     string
	Position mmath.Vec3
}

// RigData はホストの代わりとなるリグ定義を表す。
type RigData struct {
	Name    string
	Path    string
	Joints  []RigJoint
	Handles []IkHandle
}

// SortedHandles は優先度順(同値は定義順)のハンドル一覧を返す。
func (r *RigData) SortedHandles() []IkHandle {
	if r == nil {
		return nil
	}
	handles := make([]IkHandle, len(r.Handles))
	copy(handles, r.Handles)
	sort.SliceStable(handles, func(i, j int) bool {
		return handles[i].Priority < handles[j].Priority
	})
	return handles
}

// HandleByName は名前でハンドルを探す。
func (r *RigData) HandleByName(name string) (IkHandle, bool) {
	if r == nil {
		return IkHandle{}, false
	}
	for _, handle := range r.Handles {
		if handle.Name == name {
			return handle, true
		}
	}
	return IkHandle{}, false
}
