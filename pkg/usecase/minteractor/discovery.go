// 指示: miu200521358
package minteractor

import (
	"sort"
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

// segmentKeySeparator はジョイント列の重複判定キーに使う区切り文字。
const segmentKeySeparator = "\x00"

// RawChain は1つのIKハンドルが制御するルートから先端までのジョイント列を表す。
type RawChain struct {
	HandleName string
	Joints     []string
	Target     mmath.Vec3
	Priority   int
}

// PositionLookup はジョイント位置の取得関数を表す。
type PositionLookup func(path string) (mmath.Vec3, error)

// DiscoverChains はシーングラフとIKハンドルから解決計画を構築する。
func DiscoverChains(scene moutput.ISceneGraph, handles []model.IkHandle) (*model.SolvePlan, error) {
	if scene == nil {
		return nil, merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput, "シーングラフが設定されていません")
	}
	raws, err := ResolveRawChains(scene, handles)
	if err != nil {
		return nil, err
	}
	return BuildSolvePlan(raws, scene.GetPosition)
}

// ResolveRawChains は各IKハンドルのジョイント列をシーングラフから解決する。
// 返却順はハンドルの優先度順(同値は登録順)。
func ResolveRawChains(scene moutput.ISceneGraph, handles []model.IkHandle) ([]RawChain, error) {
	if len(handles) == 0 {
		return nil, merr.NewTopologyError(model.IkErrorNoHandles, "IKハンドルが登録されていません")
	}
	sorted := make([]model.IkHandle, len(handles))
	copy(sorted, handles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	raws := make([]RawChain, 0, len(sorted))
	for _, handle := range sorted {
		joints, err := resolveHandleJoints(scene, handle)
		if err != nil {
			return nil, err
		}
		raws = append(raws, RawChain{
			HandleName: handle.Name,
			Joints:     joints,
			Target:     handle.Target,
			Priority:   handle.Priority,
		})
	}
	return raws, nil
}

// resolveHandleJoints はエフェクタの親ジョイントまでの経路と、その唯一の子ジョイントを返す。
func resolveHandleJoints(scene moutput.ISceneGraph, handle model.IkHandle) ([]string, error) {
	parent, ok := model.ParentJointPath(handle.EffectorPath)
	if !ok {
		return nil, merr.NewTopologyError(model.IkErrorEffectorParentMissing,
			"エフェクタの親ジョイントが見つかりません: handle=%s effector=%s", handle.Name, handle.EffectorPath)
	}
	if _, err := scene.GetPosition(parent); err != nil {
		return nil, merr.Wrap(err, model.IkErrorEffectorParentMissing, merr.ErrorKindTopology,
			"エフェクタの親ジョイントが見つかりません: handle=%s parent=%s", handle.Name, parent)
	}

	joints, ok := model.JointPathsBetween(handle.RootPath, parent)
	if !ok {
		return nil, merr.NewTopologyError(model.IkErrorRootNotAncestor,
			"ルートジョイントがエフェクタの祖先ではありません: handle=%s root=%s parent=%s",
			handle.Name, handle.RootPath, parent)
	}

	children, err := scene.GetChildren(parent)
	if err != nil {
		return nil, merr.Wrap(err, model.IkErrorEffectorParentMissing, merr.ErrorKindTopology,
			"エフェクタ親ジョイントの子を取得できません: handle=%s parent=%s", handle.Name, parent)
	}
	if len(children) != 1 {
		return nil, merr.NewTopologyError(model.IkErrorEffectorChildNotUnique,
			"エフェクタ親ジョイントの子ジョイントが1つではありません: handle=%s parent=%s children=%d",
			handle.Name, parent, len(children))
	}
	return append(joints, children[0]), nil
}

// BuildSolvePlan は生チェーン群を分岐ジョイントで分割し、解決順に並べた計画を構築する。
func BuildSolvePlan(raws []RawChain, positionOf PositionLookup) (*model.SolvePlan, error) {
	if len(raws) == 0 {
		return nil, merr.NewTopologyError(model.IkErrorNoHandles, "IKハンドルが登録されていません")
	}
	jointLists := make([][]string, 0, len(raws))
	for _, raw := range raws {
		if len(raw.Joints) < 2 {
			return nil, merr.NewTopologyError(model.IkErrorChainTooShort,
				"ジョイント数が2未満のチェーンです: handle=%s joints=%v", raw.HandleName, raw.Joints)
		}
		jointLists = append(jointLists, raw.Joints)
	}

	segments := splitJointChains(jointLists)
	branchJoints := collectBranchJoints(segments)
	branchSet := make(map[string]struct{}, len(branchJoints))
	for _, joint := range branchJoints {
		branchSet[joint] = struct{}{}
	}

	chains := make([]*model.Chain, 0, len(raws)+len(segments))
	for _, raw := range raws {
		chains = append(chains, &model.Chain{
			Joints:            cloneStrings(raw.Joints),
			HandleName:        raw.HandleName,
			FixedTarget:       raw.Target,
			ContributionIndex: -1,
		})
	}

	subChains := make([]*model.Chain, 0)
	consumed := map[string]struct{}{}
	for _, segment := range segments {
		if len(segment) < 2 {
			continue
		}
		if _, isBranch := branchSet[segment[0]]; !isBranch {
			continue
		}
		joints := reverseStrings(segment)
		subChains = append(subChains, &model.Chain{
			Joints:            joints,
			IsSub:             true,
			TargetJoint:       segment[0],
			ContributionIndex: -1,
		})
		consumed[segment[0]] = struct{}{}
	}
	// 葉側(祖先の多い分岐)から解決する。
	sort.SliceStable(subChains, func(i, j int) bool {
		return model.JointDepth(subChains[i].TargetJoint) > model.JointDepth(subChains[j].TargetJoint)
	})
	chains = append(chains, subChains...)

	expected := make(map[string]int, len(branchJoints))
	for _, joint := range branchJoints {
		expected[joint] = 0
	}
	for _, chain := range chains {
		assignContribution(chain, consumed)
		if chain.ContributesTo != "" {
			expected[chain.ContributesTo]++
		}
	}

	for _, chain := range chains {
		links, err := measureLinks(chain.Joints, positionOf)
		if err != nil {
			return nil, err
		}
		chain.Links = links
	}

	return &model.SolvePlan{
		Chains:                chains,
		BranchJoints:          branchJoints,
		ExpectedContributions: expected,
	}, nil
}

// splitJointChains は生チェーンを先端からルートへ辿り、出現数が変わる位置で区切る。
// 区切ったジョイント列は先端側から並び、同一の列は1度だけ返す。
func splitJointChains(jointLists [][]string) [][]string {
	counts := map[string]int{}
	for _, joints := range jointLists {
		for _, joint := range joints {
			counts[joint]++
		}
	}

	seen := map[string]struct{}{}
	segments := make([][]string, 0)
	emit := func(segment []string) {
		key := strings.Join(segment, segmentKeySeparator)
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		segments = append(segments, cloneStrings(segment))
	}

	for _, joints := range jointLists {
		segment := make([]string, 0, len(joints))
		index := 1
		for i := len(joints) - 1; i >= 0; i-- {
			joint := joints[i]
			segment = append(segment, joint)
			if i == 0 {
				emit(segment)
				break
			}
			if counts[joint] != index {
				emit(segment)
				segment = []string{joint}
				index = counts[joint]
			}
		}
	}
	return segments
}

// collectBranchJoints は区切り列に2回以上現れるジョイントを祖先数の少ない順で返す。
func collectBranchJoints(segments [][]string) []string {
	counts := map[string]int{}
	for _, segment := range segments {
		for _, joint := range segment {
			counts[joint]++
		}
	}
	branchJoints := make([]string, 0)
	for joint, count := range counts {
		if count >= 2 {
			branchJoints = append(branchJoints, joint)
		}
	}
	sort.Slice(branchJoints, func(i, j int) bool {
		di, dj := model.JointDepth(branchJoints[i]), model.JointDepth(branchJoints[j])
		if di != dj {
			return di < dj
		}
		return branchJoints[i] < branchJoints[j]
	})
	return branchJoints
}

// assignContribution はチェーンが解決位置を寄与する分岐ジョイントを決める。
// 派生チェーン自身の先端は親から受け取る側なので対象外とする。
func assignContribution(chain *model.Chain, consumed map[string]struct{}) {
	last := len(chain.Joints) - 1
	if chain.IsSub {
		last--
	}
	for i := last; i >= 0; i-- {
		if _, ok := consumed[chain.Joints[i]]; ok {
			chain.ContributesTo = chain.Joints[i]
			chain.ContributionIndex = i
			return
		}
	}
	chain.ContributesTo = ""
	chain.ContributionIndex = -1
}

// measureLinks は現在位置から連続ジョイント間距離を求める。
func measureLinks(joints []string, positionOf PositionLookup) ([]float64, error) {
	positions, err := readPositions(joints, positionOf)
	if err != nil {
		return nil, err
	}
	return mmath.Distances(positions), nil
}

// readPositions はジョイント位置を順に取得する。
func readPositions(joints []string, positionOf PositionLookup) ([]mmath.Vec3, error) {
	if positionOf == nil {
		return nil, merr.NewError(model.IkErrorInvalidSolveInput, merr.ErrorKindInput, "ジョイント位置の取得関数が設定されていません")
	}
	positions := make([]mmath.Vec3, 0, len(joints))
	for _, joint := range joints {
		position, err := positionOf(joint)
		if err != nil {
			return nil, merr.Wrap(err, model.IkErrorJointPositionMissing, merr.ErrorKindTopology,
				"ジョイント位置を取得できません: %s", joint)
		}
		positions = append(positions, position)
	}
	return positions, nil
}

func cloneStrings(values []string) []string {
	cloned := make([]string, len(values))
	copy(cloned, values)
	return cloned
}

func reverseStrings(values []string) []string {
	reversed := make([]string, len(values))
	for i, value := range values {
		reversed[len(values)-1-i] = value
	}
	return reversed
}
