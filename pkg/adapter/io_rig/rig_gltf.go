// 指示: miu200521358
package io_rig

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize

	sidecarSuffix     = ".handles.yaml"
	effectorSuffix    = "_effector"
	humanoidHandleFmt = "%sIk"
)

// humanoidLimb は自動生成するIKハンドルの上位・中間・末端ボーン名を表す。
type humanoidLimb struct {
	upper string
	lower string
	end   string
}

// humanoidLimbs はVRM humanoidから自動生成する四肢のIK。
var humanoidLimbs = []humanoidLimb{
	{upper: "leftUpperArm", lower: "leftLowerArm", end: "leftHand"},
	{upper: "rightUpperArm", lower: "rightLowerArm", end: "rightHand"},
	{upper: "leftUpperLeg", lower: "leftLowerLeg", end: "leftFoot"},
	{upper: "rightUpperLeg", lower: "rightLowerLeg", end: "rightFoot"},
}

// gltfDocument はリグ構築に必要なglTFトップレベル要素を表す。
type gltfDocument struct {
	Nodes      []gltfNode                 `json:"nodes"`
	Extensions map[string]json.RawMessage `json:"extensions"`
}

// gltfNode はglTF node要素を表す。
type gltfNode struct {
	Name        string    `json:"name"`
	Children    []int     `json:"children"`
	Matrix      []float64 `json:"matrix"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

// vrm0Extension はVRM0拡張のhumanoid要素を表す。
type vrm0Extension struct {
	Humanoid struct {
		HumanBones []struct {
			Bone string `json:"bone"`
			Node int    `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// vrm1Extension はVRM1拡張のhumanoid要素を表す。
type vrm1Extension struct {
	Humanoid struct {
		HumanBones map[string]struct {
			Node *int `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// parseGltfRig はglTF/GLB/VRMのノード階層をリグ定義へ変換する。
// ハンドルはサイドカー定義を優先し、無ければVRM humanoidから四肢分を生成する。
func parseGltfRig(b []byte, sidecar []handleDocument) (*model.RigData, error) {
	jsonChunk := b
	if len(b) >= 4 && binary.LittleEndian.Uint32(b[0:4]) == glbMagic {
		chunk, err := parseGLBJSONChunk(b)
		if err != nil {
			return nil, err
		}
		jsonChunk = chunk
	}

	doc := gltfDocument{}
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, fmt.Errorf("glTF JSONの解析に失敗しました: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("glTFにノードがありません")
	}
	parents, err := buildNodeParentIndexes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	positions, err := buildNodeWorldPositions(doc.Nodes, parents)
	if err != nil {
		return nil, err
	}
	paths := buildNodePaths(doc.Nodes, parents)

	rig := &model.RigData{Joints: make([]model.RigJoint, 0, len(doc.Nodes))}
	for i := range doc.Nodes {
		rig.Joints = append(rig.Joints, model.RigJoint{Path: paths[i], Position: positions[i]})
	}

	if len(sidecar) > 0 {
		handles, err := convertHandles(sidecar)
		if err != nil {
			return nil, err
		}
		rig.Handles = handles
		return rig, nil
	}
	rig.Handles = buildHumanoidHandles(humanoidNodes(doc.Extensions), parents, paths, positions)
	return rig, nil
}

// loadSidecarHandles は <base>.handles.yaml があればハンドル定義を読み込む。
func loadSidecarHandles(path string) ([]handleDocument, error) {
	sidecarPath := strings.TrimSuffix(path, filepath.Ext(path)) + sidecarSuffix
	b, err := os.ReadFile(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ハンドル定義の読み取りに失敗しました: %w", err)
	}
	doc := sidecarDocument{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("ハンドル定義の解析に失敗しました: %s: %w", sidecarPath, err)
	}
	logRigDebug("ハンドル定義を読み込みました: file=%s handles=%d", filepath.Base(sidecarPath), len(doc.Handles))
	return doc.Handles, nil
}

// parseGLBJSONChunk はGLBバイナリからJSONチャンクを取り出す。
func parseGLBJSONChunk(b []byte) ([]byte, error) {
	if len(b) < glbMinValidLength {
		return nil, fmt.Errorf("GLBヘッダが不足しています")
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != glbMagic {
		return nil, fmt.Errorf("GLBマジックが不正です")
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 2 {
		return nil, fmt.Errorf("GLBバージョンが未対応です: %d", version)
	}
	totalLength := binary.LittleEndian.Uint32(b[8:12])
	if totalLength > uint32(len(b)) {
		return nil, fmt.Errorf("GLB全体長が不正です")
	}

	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, fmt.Errorf("GLBチャンク長が不正です")
		}
		if chunkType == glbJSONChunkType {
			return b[chunkStart:chunkEnd], nil
		}
		offset = chunkEnd
	}
	return nil, fmt.Errorf("GLB JSONチャンクが見つかりません")
}

// buildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func buildNodeParentIndexes(nodes []gltfNode) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, fmt.Errorf("node.children のindexが不正です: %d", childIndex)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	return parentIndexes, nil
}

// buildNodeWorldPositions はnodeのローカル変換からワールド座標を算出する。
func buildNodeWorldPositions(nodes []gltfNode, parents []int) ([]mmath.Vec3, error) {
	worldMats := make([]mgl64.Mat4, len(nodes))
	state := make([]int, len(nodes))
	for i := range nodes {
		if err := resolveNodeWorldMatrix(nodes, parents, i, state, worldMats); err != nil {
			return nil, err
		}
	}
	positions := make([]mmath.Vec3, len(nodes))
	for i, mat := range worldMats {
		translation := mat.Col(3)
		positions[i] = mmath.NewVec3(translation[0], translation[1], translation[2])
	}
	return positions, nil
}

// resolveNodeWorldMatrix はnodeのワールド行列を再帰的に解決する。
func resolveNodeWorldMatrix(nodes []gltfNode, parents []int, nodeIndex int, state []int, worldMats []mgl64.Mat4) error {
	if state[nodeIndex] == 2 {
		return nil
	}
	if state[nodeIndex] == 1 {
		return fmt.Errorf("node親子関係に循環があります: %d", nodeIndex)
	}
	state[nodeIndex] = 1
	local, err := nodeLocalMatrix(nodes[nodeIndex])
	if err != nil {
		return err
	}
	parentIndex := parents[nodeIndex]
	if parentIndex >= 0 {
		if err := resolveNodeWorldMatrix(nodes, parents, parentIndex, state, worldMats); err != nil {
			return err
		}
		worldMats[nodeIndex] = worldMats[parentIndex].Mul4(local)
	} else {
		worldMats[nodeIndex] = local
	}
	state[nodeIndex] = 2
	return nil
}

// nodeLocalMatrix はnode要素からローカル行列を生成する。
func nodeLocalMatrix(node gltfNode) (mgl64.Mat4, error) {
	if len(node.Matrix) > 0 {
		if len(node.Matrix) != 16 {
			return mgl64.Ident4(), fmt.Errorf("node.matrix の要素数が不正です: %d", len(node.Matrix))
		}
		mat := mgl64.Mat4{}
		copy(mat[:], node.Matrix)
		return mat, nil
	}

	translation, err := parseGltfVec3(node.Translation, mgl64.Vec3{0, 0, 0}, "node.translation")
	if err != nil {
		return mgl64.Ident4(), err
	}
	scale, err := parseGltfVec3(node.Scale, mgl64.Vec3{1, 1, 1}, "node.scale")
	if err != nil {
		return mgl64.Ident4(), err
	}
	rotation := mgl64.QuatIdent()
	if len(node.Rotation) > 0 {
		if len(node.Rotation) != 4 {
			return mgl64.Ident4(), fmt.Errorf("node.rotation の要素数が不正です: %d", len(node.Rotation))
		}
		rotation = mgl64.Quat{
			W: node.Rotation[3],
			V: mgl64.Vec3{node.Rotation[0], node.Rotation[1], node.Rotation[2]},
		}.Normalize()
	}

	return mgl64.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2])), nil
}

// parseGltfVec3 はスライスをVec3へ変換する。
func parseGltfVec3(values []float64, defaultValue mgl64.Vec3, label string) (mgl64.Vec3, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%s の要素数が不正です: %d", label, len(values))
	}
	return mgl64.Vec3{values[0], values[1], values[2]}, nil
}

// buildNodePaths はノード階層からジョイントパスを組み立てる。兄弟で名前が重なる場合はindexを付ける。
func buildNodePaths(nodes []gltfNode, parents []int) []string {
	paths := make([]string, len(nodes))
	used := map[string]struct{}{}
	var resolve func(index int) string
	resolve = func(index int) string {
		if paths[index] != "" {
			return paths[index]
		}
		parentPath := ""
		if parents[index] >= 0 {
			parentPath = resolve(parents[index])
		}
		name := strings.ReplaceAll(strings.TrimSpace(nodes[index].Name), model.JointPathSeparator, "_")
		if name == "" {
			name = fmt.Sprintf("node%d", index)
		}
		path := parentPath + model.JointPathSeparator + name
		if _, exists := used[path]; exists {
			path = fmt.Sprintf("%s_%d", path, index)
		}
		used[path] = struct{}{}
		paths[index] = path
		return path
	}
	for i := range nodes {
		resolve(i)
	}
	return paths
}

// humanoidNodes はVRM0/VRM1拡張からhumanoidボーン名とノードの対応を取り出す。
func humanoidNodes(extensions map[string]json.RawMessage) map[string]int {
	nodes := map[string]int{}
	if raw, ok := extensions["VRMC_vrm"]; ok {
		ext := vrm1Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			logRigWarn("VRM1 humanoidの解析に失敗しました: %v", err)
			return nodes
		}
		for bone, human := range ext.Humanoid.HumanBones {
			if human.Node != nil {
				nodes[bone] = *human.Node
			}
		}
		return nodes
	}
	if raw, ok := extensions["VRM"]; ok {
		ext := vrm0Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			logRigWarn("VRM0 humanoidの解析に失敗しました: %v", err)
			return nodes
		}
		for _, human := range ext.Humanoid.HumanBones {
			nodes[human.Bone] = human.Node
		}
	}
	return nodes
}

// buildHumanoidHandles は四肢ごとに末端ボーン位置をターゲットとするIKハンドルを生成する。
// 末端ボーンの親が中間ボーンでない四肢は生成しない。
func buildHumanoidHandles(bones map[string]int, parents []int, paths []string, positions []mmath.Vec3) []model.IkHandle {
	handles := make([]model.IkHandle, 0, len(humanoidLimbs))
	for _, limb := range humanoidLimbs {
		upper, okUpper := bones[limb.upper]
		lower, okLower := bones[limb.lower]
		end, okEnd := bones[limb.end]
		if !okUpper || !okLower || !okEnd {
			continue
		}
		if !validNodeIndex(upper, paths) || !validNodeIndex(lower, paths) || !validNodeIndex(end, paths) {
			continue
		}
		if parents[end] != lower || !model.IsAncestorOrSelf(paths[upper], paths[lower]) {
			logRigDebug("四肢の階層が想定外のためIKを生成しません: %s", limb.end)
			continue
		}
		name := fmt.Sprintf(humanoidHandleFmt, limb.end)
		handles = append(handles, model.IkHandle{
			Name:         name,
			EffectorPath: paths[lower] + model.JointPathSeparator + name + effectorSuffix,
			RootPath:     paths[upper],
			Priority:     len(handles),
			Target:       positions[end],
		})
	}
	return handles
}

func validNodeIndex(index int, paths []string) bool {
	return index >= 0 && index < len(paths)
}
