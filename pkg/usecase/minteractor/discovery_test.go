// 指示: miu200521358
package minteractor

import (
	"reflect"
	"testing"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

func TestSplitJointChainsSharedPrefix(t *testing.T) {
	segments := splitJointChains([][]string{
		{"A", "B", "C", "D"},
		{"A", "B", "E", "F"},
	})
	want := [][]string{
		{"D", "C", "B"},
		{"B", "A"},
		{"F", "E", "B"},
	}
	if !reflect.DeepEqual(segments, want) {
		t.Fatalf("segments mismatch: got=%v want=%v", segments, want)
	}
	branches := collectBranchJoints(segments)
	if !reflect.DeepEqual(branches, []string{"B"}) {
		t.Fatalf("branch joints mismatch: %v", branches)
	}
}

func TestSplitJointChainsWithoutSharing(t *testing.T) {
	segments := splitJointChains([][]string{{"A", "B", "C"}})
	if !reflect.DeepEqual(segments, [][]string{{"C", "B", "A"}}) {
		t.Fatalf("segments mismatch: %v", segments)
	}
	if branches := collectBranchJoints(segments); len(branches) != 0 {
		t.Fatalf("unexpected branch joints: %v", branches)
	}
}

func TestDiscoverChainsBuildsBranchPlan(t *testing.T) {
	scene := newForkScene()
	plan, err := DiscoverChains(scene, forkHandles())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(plan.Chains) != 3 {
		t.Fatalf("chain count mismatch: %d", len(plan.Chains))
	}
	if !reflect.DeepEqual(plan.BranchJoints, []string{"|A|B"}) {
		t.Fatalf("branch joints mismatch: %v", plan.BranchJoints)
	}
	if plan.ExpectedContributions["|A|B"] != 2 {
		t.Fatalf("expected contributions mismatch: %v", plan.ExpectedContributions)
	}

	left := plan.Chains[0]
	if left.HandleName != "leftHandle" || left.IsSub {
		t.Fatalf("first chain should be leftHandle: %s", left.String())
	}
	if !reflect.DeepEqual(left.Joints, []string{"|A", "|A|B", "|A|B|C", "|A|B|C|D"}) {
		t.Fatalf("left joints mismatch: %v", left.Joints)
	}
	if left.ContributesTo != "|A|B" || left.ContributionIndex != 1 || left.WriteStartIndex() != 2 {
		t.Fatalf("left contribution mismatch: %s index=%d", left.ContributesTo, left.ContributionIndex)
	}
	if !reflect.DeepEqual(left.Links, []float64{1, 1, 1}) {
		t.Fatalf("left links mismatch: %v", left.Links)
	}

	sub := plan.Chains[2]
	if !sub.IsSub || sub.TargetJoint != "|A|B" {
		t.Fatalf("last chain should be sub chain: %s", sub.String())
	}
	if !reflect.DeepEqual(sub.Joints, []string{"|A", "|A|B"}) {
		t.Fatalf("sub joints mismatch: %v", sub.Joints)
	}
	if sub.ContributesTo != "" || sub.WriteStartIndex() != 0 {
		t.Fatalf("sub chain should not contribute: %s", sub.ContributesTo)
	}
}

func TestDiscoverChainsIsIdempotent(t *testing.T) {
	scene := newForkScene()
	first, err := DiscoverChains(scene, forkHandles())
	if err != nil {
		t.Fatalf("first discover failed: %v", err)
	}
	second, err := DiscoverChains(scene, forkHandles())
	if err != nil {
		t.Fatalf("second discover failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ between runs")
	}
	if len(scene.writes) != 0 {
		t.Fatalf("discovery must not write positions: %v", scene.writes)
	}
}

func TestDiscoverChainsOrdersByPriority(t *testing.T) {
	handles := forkHandles()
	handles[0].Priority = 5
	plan, err := DiscoverChains(newForkScene(), handles)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if plan.Chains[0].HandleName != "rightHandle" || plan.Chains[1].HandleName != "leftHandle" {
		t.Fatalf("priority order mismatch: %s %s", plan.Chains[0].String(), plan.Chains[1].String())
	}
}

func TestBuildSolvePlanOrdersDeeperSubChainsFirst(t *testing.T) {
	positions := map[string]mmath.Vec3{}
	paths := []string{"|R", "|R|S", "|R|S|T", "|R|S|T|L1", "|R|S|T|L2", "|R|S|U"}
	for i, path := range paths {
		positions[path] = mmath.NewVec3(float64(i), float64(model.JointDepth(path)), 0)
	}
	lookup := func(path string) (mmath.Vec3, error) {
		return positions[path], nil
	}
	plan, err := BuildSolvePlan([]RawChain{
		{HandleName: "h1", Joints: []string{"|R", "|R|S", "|R|S|T", "|R|S|T|L1"}},
		{HandleName: "h2", Joints: []string{"|R", "|R|S", "|R|S|T", "|R|S|T|L2"}},
		{HandleName: "h3", Joints: []string{"|R", "|R|S", "|R|S|U"}},
	}, lookup)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !reflect.DeepEqual(plan.BranchJoints, []string{"|R|S", "|R|S|T"}) {
		t.Fatalf("branch joints mismatch: %v", plan.BranchJoints)
	}
	subs := make([]*model.Chain, 0)
	for _, chain := range plan.Chains {
		if chain.IsSub {
			subs = append(subs, chain)
		}
	}
	if len(subs) != 2 {
		t.Fatalf("sub chain count mismatch: %d", len(subs))
	}
	if subs[0].TargetJoint != "|R|S|T" || subs[1].TargetJoint != "|R|S" {
		t.Fatalf("sub chain order mismatch: %s %s", subs[0].String(), subs[1].String())
	}
	if subs[0].ContributesTo != "|R|S" {
		t.Fatalf("inner sub chain should feed outer branch: %s", subs[0].ContributesTo)
	}
	if plan.ExpectedContributions["|R|S|T"] != 2 || plan.ExpectedContributions["|R|S"] != 2 {
		t.Fatalf("expected contributions mismatch: %v", plan.ExpectedContributions)
	}
}

func TestDiscoverChainsRejectsDegenerateTopology(t *testing.T) {
	scene := newForkScene()

	if _, err := DiscoverChains(scene, nil); merr.ExtractErrorID(err) != model.IkErrorNoHandles {
		t.Fatalf("expected no handles error: %v", err)
	}

	handles := forkHandles()[:1]
	handles[0].RootPath = "|Z"
	if _, err := DiscoverChains(scene, handles); merr.ExtractErrorID(err) != model.IkErrorRootNotAncestor {
		t.Fatalf("expected root not ancestor error: %v", err)
	}

	handles = forkHandles()[:1]
	handles[0].EffectorPath = "|A|B|Be"
	if _, err := DiscoverChains(scene, handles); merr.ExtractErrorID(err) != model.IkErrorEffectorChildNotUnique {
		t.Fatalf("expected child not unique error: %v", err)
	}

	handles = forkHandles()[:1]
	handles[0].EffectorPath = "|Q|Qe"
	if _, err := DiscoverChains(scene, handles); merr.ExtractErrorID(err) != model.IkErrorEffectorParentMissing {
		t.Fatalf("expected effector parent missing error: %v", err)
	}

	_, err := BuildSolvePlan([]RawChain{{HandleName: "single", Joints: []string{"|A"}}}, scene.GetPosition)
	if merr.ExtractErrorID(err) != model.IkErrorChainTooShort {
		t.Fatalf("expected chain too short error: %v", err)
	}
}
