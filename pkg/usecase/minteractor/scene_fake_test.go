// 指示: miu200521358
package minteractor

import (
	"fmt"
	"sort"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

// fakeScene はパス階層から子を導出するテスト用シーングラフ。
type fakeScene struct {
	positions map[string]mmath.Vec3
	writes    []string
}

func newFakeScene(joints map[string][3]float64) *fakeScene {
	scene := &fakeScene{positions: map[string]mmath.Vec3{}}
	for path, p := range joints {
		scene.positions[path] = mmath.NewVec3(p[0], p[1], p[2])
	}
	return scene
}

func (s *fakeScene) GetPosition(path string) (mmath.Vec3, error) {
	position, ok := s.positions[path]
	if !ok {
		return mmath.Vec3{}, fmt.Errorf("joint not found: %s", path)
	}
	return position, nil
}

func (s *fakeScene) SetPosition(path string, position mmath.Vec3) error {
	if _, ok := s.positions[path]; !ok {
		return fmt.Errorf("joint not found: %s", path)
	}
	s.positions[path] = position
	s.writes = append(s.writes, path)
	return nil
}

func (s *fakeScene) GetChildren(path string) ([]string, error) {
	if _, ok := s.positions[path]; !ok {
		return nil, fmt.Errorf("joint not found: %s", path)
	}
	children := make([]string, 0)
	for candidate := range s.positions {
		if parent, ok := model.ParentJointPath(candidate); ok && parent == path {
			children = append(children, candidate)
		}
	}
	sort.Strings(children)
	return children, nil
}

// newForkScene は |A|B で二股に分かれるリグを返す。
// エフェクタはジョイントではないためシーンには含めない。
func newForkScene() *fakeScene {
	return newFakeScene(map[string][3]float64{
		"|A":       {0, 0, 0},
		"|A|B":     {0, 1, 0},
		"|A|B|C":   {-1, 1, 0},
		"|A|B|C|D": {-2, 1, 0},
		"|A|B|E":   {1, 1, 0},
		"|A|B|E|F": {2, 1, 0},
	})
}

func forkHandles() []model.IkHandle {
	return []model.IkHandle{
		{
			Name:         "leftHandle",
			EffectorPath: "|A|B|C|De",
			RootPath:     "|A",
			Priority:     0,
			Target:       mmath.NewVec3(-1.5, 2.5, 0),
		},
		{
			Name:         "rightHandle",
			EffectorPath: "|A|B|E|Fe",
			RootPath:     "|A",
			Priority:     1,
			Target:       mmath.NewVec3(1.5, 2.5, 0),
		},
	}
}
