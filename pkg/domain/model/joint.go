// 指示: miu200521358
package model

import (
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
)

// JointPathSeparator はDAGパスの区切り文字。
const JointPathSeparator = "|"

// Joint はホストのシーングラフが所有するジョイントの状態を表す。
// 向きは回転解決の拡張用で、ソルバーは設定しない。
type Joint struct {
	Path        string
	Position    mmath.Vec3
	Orientation *mmath.Quaternion
}

// JointDepth はパスから祖先数を返す。ルート直下は1。
func JointDepth(path string) int {
	return strings.Count(path, JointPathSeparator)
}

// ParentJointPath は親パスを返す。親が無い場合は false を返す。
func ParentJointPath(path string) (string, bool) {
	index := strings.LastIndex(path, JointPathSeparator)
	if index <= 0 {
		return "", false
	}
	return path[:index], true
}

// JointName はパス末尾の名前を返す。
func JointName(path string) string {
	index := strings.LastIndex(path, JointPathSeparator)
	if index < 0 {
		return path
	}
	return path[index+1:]
}

// IsAncestorOrSelf は ancestor が path 自身または祖先か判定する。
func IsAncestorOrSelf(ancestor, path string) bool {
	if ancestor == "" {
		return false
	}
	if ancestor == path {
		return true
	}
	return strings.HasPrefix(path, ancestor+JointPathSeparator)
}

// JointPathsBetween は root から leaf までのパスを root 側から順に返す。
// root が leaf の祖先でない場合は false を返す。
func JointPathsBetween(root, leaf string) ([]string, bool) {
	if !IsAncestorOrSelf(root, leaf) {
		return nil, false
	}
	paths := []string{root}
	rest := strings.TrimPrefix(leaf, root)
	current := root
	for _, name := range strings.Split(rest, JointPathSeparator) {
		if name == "" {
			continue
		}
		current = current + JointPathSeparator + name
		paths = append(paths, current)
	}
	return paths, true
}
