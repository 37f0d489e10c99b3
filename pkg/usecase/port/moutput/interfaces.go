// 指示: miu200521358
package moutput

import (
	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

// ISceneGraph はホストのシーングラフに対する最小限の操作契約を表す。
// 位置はすべてワールド空間。
type ISceneGraph interface {
	// GetPosition はジョイント位置を返す。
	GetPosition(path string) (mmath.Vec3, error)
	// SetPosition はジョイント位置を書き込む。
	SetPosition(path string, position mmath.Vec3) error
	// GetChildren は子ジョイントのパス一覧を返す。
	GetChildren(path string) ([]string, error)
}

// IOrientationWriter は回転解決結果の書き込み契約を表す。
// 回転解決は未実装のため、ソルバーからは呼ばれない。
type IOrientationWriter interface {
	SetOrientation(path string, orientation mmath.Quaternion) error
}

// IRigReader はリグ定義の読み込み契約を表す。
type IRigReader interface {
	CanLoad(path string) bool
	Load(path string) (*model.RigData, error)
}

// IPoseWriter は解決済みポーズの保存契約を表す。
type IPoseWriter interface {
	Save(path string, poses *model.PoseSequence) error
}
