// 指示: miu200521358
package scene

import (
	"sort"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

// MemorySceneGraph はリグ定義から構築したメモリ上のシーングラフを表す。
type MemorySceneGraph struct {
	order        []string
	positions    map[string]mmath.Vec3
	orientations map[string]mmath.Quaternion
	children     map[string][]string
}

// NewMemorySceneGraph はリグ定義からシーングラフを構築する。
// 親ジョイントが未定義のパスやパスの重複はエラーにする。
func NewMemorySceneGraph(rig *model.RigData) (*MemorySceneGraph, error) {
	if rig == nil {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput, "リグ定義が未設定です")
	}
	graph := &MemorySceneGraph{
		order:        make([]string, 0, len(rig.Joints)),
		positions:    make(map[string]mmath.Vec3, len(rig.Joints)),
		orientations: make(map[string]mmath.Quaternion, len(rig.Joints)),
		children:     make(map[string][]string, len(rig.Joints)),
	}
	for _, joint := range rig.Joints {
		if joint.Path == "" || joint.Path[0:1] != model.JointPathSeparator {
			return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput,
				"ジョイントパスは %s で始まる必要があります: %q", model.JointPathSeparator, joint.Path)
		}
		if _, exists := graph.positions[joint.Path]; exists {
			return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput,
				"ジョイントパスが重複しています: %s", joint.Path)
		}
		graph.order = append(graph.order, joint.Path)
		graph.positions[joint.Path] = joint.Position
		graph.orientations[joint.Path] = mmath.NewQuaternion()
	}
	for _, path := range graph.order {
		parent, ok := model.ParentJointPath(path)
		if !ok {
			continue
		}
		if _, exists := graph.positions[parent]; !exists {
			return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput,
				"親ジョイントが定義されていません: joint=%s parent=%s", path, parent)
		}
		graph.children[parent] = append(graph.children[parent], path)
	}
	for parent := range graph.children {
		sort.Strings(graph.children[parent])
	}
	return graph, nil
}

// GetPosition はジョイント位置を返す。
func (g *MemorySceneGraph) GetPosition(path string) (mmath.Vec3, error) {
	position, ok := g.positions[path]
	if !ok {
		return mmath.Vec3{}, jointNotFound(path)
	}
	return position, nil
}

// SetPosition はジョイント位置を書き込む。
func (g *MemorySceneGraph) SetPosition(path string, position mmath.Vec3) error {
	if _, ok := g.positions[path]; !ok {
		return jointNotFound(path)
	}
	g.positions[path] = position
	return nil
}

// GetChildren は子ジョイントのパスを名前順で返す。
func (g *MemorySceneGraph) GetChildren(path string) ([]string, error) {
	if _, ok := g.positions[path]; !ok {
		return nil, jointNotFound(path)
	}
	children := g.children[path]
	result := make([]string, len(children))
	copy(result, children)
	return result, nil
}

// SetOrientation はジョイント回転を書き込む。
func (g *MemorySceneGraph) SetOrientation(path string, orientation mmath.Quaternion) error {
	if _, ok := g.positions[path]; !ok {
		return jointNotFound(path)
	}
	g.orientations[path] = orientation
	return nil
}

// Orientation はジョイント回転を返す。未設定の場合は単位回転。
func (g *MemorySceneGraph) Orientation(path string) (mmath.Quaternion, bool) {
	orientation, ok := g.orientations[path]
	return orientation, ok
}

// Joints は定義順のジョイント一覧を現在位置付きで返す。
func (g *MemorySceneGraph) Joints() []model.Joint {
	joints := make([]model.Joint, 0, len(g.order))
	for _, path := range g.order {
		orientation := g.orientations[path]
		joints = append(joints, model.Joint{
			Path:        path,
			Position:    g.positions[path],
			Orientation: &orientation,
		})
	}
	return joints
}

func jointNotFound(path string) error {
	return merr.NewTopologyError(model.IkErrorJointPositionMissing, "ジョイントが見つかりません: %s", path)
}
