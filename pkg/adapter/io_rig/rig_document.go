// 指示: miu200521358
package io_rig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

// rigDocument はリグ定義ファイルのトップレベルを表す。
type rigDocument struct {
	Name    string           `yaml:"name"`
	Joints  []jointDocument  `yaml:"joints"`
	Handles []handleDocument `yaml:"handles"`
}

// jointDocument はジョイント定義を表す。
// path を省略した場合は親パスと name から組み立てる。
type jointDocument struct {
	Name     string          `yaml:"name"`
	Path     string          `yaml:"path"`
	Position []float64       `yaml:"position"`
	Children []jointDocument `yaml:"children"`
}

// handleDocument はIKハンドル定義を表す。
type handleDocument struct {
	Name     string        `yaml:"name"`
	Effector string        `yaml:"effector"`
	Root     string        `yaml:"root"`
	Priority *int          `yaml:"priority"`
	Target   []float64     `yaml:"target"`
	Track    trackDocument `yaml:"track"`
}

// trackDocument は軸ごとのターゲット式を表す。
type trackDocument struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
	Z string `yaml:"z"`
}

// sidecarDocument はglTFリグに添えるハンドル定義ファイルを表す。
type sidecarDocument struct {
	Handles []handleDocument `yaml:"handles"`
}

// parseYamlRig はYAMLのリグ定義を解析する。
func parseYamlRig(b []byte) (*model.RigData, error) {
	doc := rigDocument{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("YAMLの解析に失敗しました: %w", err)
	}
	return doc.toRigData()
}

// toRigData は文書をリグ定義へ変換する。
func (d rigDocument) toRigData() (*model.RigData, error) {
	joints, err := flattenJoints(d.Joints, "")
	if err != nil {
		return nil, err
	}
	if len(joints) == 0 {
		return nil, fmt.Errorf("ジョイントが定義されていません")
	}
	handles, err := convertHandles(d.Handles)
	if err != nil {
		return nil, err
	}
	return &model.RigData{
		Name:    strings.TrimSpace(d.Name),
		Joints:  joints,
		Handles: handles,
	}, nil
}

// flattenJoints は入れ子のジョイント定義を定義順の一覧へ展開する。
func flattenJoints(docs []jointDocument, parentPath string) ([]model.RigJoint, error) {
	joints := make([]model.RigJoint, 0, len(docs))
	for _, doc := range docs {
		path := strings.TrimSpace(doc.Path)
		if path == "" {
			name := strings.TrimSpace(doc.Name)
			if name == "" {
				return nil, fmt.Errorf("ジョイントに name も path もありません: parent=%q", parentPath)
			}
			path = parentPath + model.JointPathSeparator + name
		}
		position, err := mmath.Vec3FromSlice(doc.Position)
		if err != nil {
			return nil, fmt.Errorf("ジョイント位置が不正です: %s: %w", path, err)
		}
		joints = append(joints, model.RigJoint{Path: path, Position: position})

		children, err := flattenJoints(doc.Children, path)
		if err != nil {
			return nil, err
		}
		joints = append(joints, children...)
	}
	return joints, nil
}

// convertHandles はハンドル定義を変換する。priority 省略時は定義順。
func convertHandles(docs []handleDocument) ([]model.IkHandle, error) {
	handles := make([]model.IkHandle, 0, len(docs))
	names := map[string]struct{}{}
	for i, doc := range docs {
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			return nil, fmt.Errorf("%d番目のハンドル名が空です", i)
		}
		if _, exists := names[name]; exists {
			return nil, fmt.Errorf("ハンドル名が重複しています: %s", name)
		}
		names[name] = struct{}{}
		if strings.TrimSpace(doc.Effector) == "" || strings.TrimSpace(doc.Root) == "" {
			return nil, fmt.Errorf("ハンドルの effector と root は必須です: %s", name)
		}
		target, err := mmath.Vec3FromSlice(doc.Target)
		if err != nil {
			return nil, fmt.Errorf("ハンドルのターゲットが不正です: %s: %w", name, err)
		}
		priority := i
		if doc.Priority != nil {
			priority = *doc.Priority
		}
		handles = append(handles, model.IkHandle{
			Name:         name,
			EffectorPath: strings.TrimSpace(doc.Effector),
			RootPath:     strings.TrimSpace(doc.Root),
			Priority:     priority,
			Target:       target,
			Track: model.TargetTrackSource{
				X: strings.TrimSpace(doc.Track.X),
				Y: strings.TrimSpace(doc.Track.Y),
				Z: strings.TrimSpace(doc.Track.Z),
			},
		})
	}
	return handles, nil
}
