// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

type recordingReporter struct {
	events []SolveProgressEvent
}

func (r *recordingReporter) ReportSolveProgress(event SolveProgressEvent) {
	r.events = append(r.events, event)
}

func (r *recordingReporter) count(eventType SolveProgressEventType) int {
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

func newPreparedUsecase(t *testing.T, scene *fakeScene) *FabrikUsecase {
	t.Helper()
	uc := NewFabrikUsecase(FabrikUsecaseDeps{Scene: scene})
	if _, err := uc.PreSolve(PreSolveRequest{Handles: forkHandles()}); err != nil {
		t.Fatalf("presolve failed: %v", err)
	}
	return uc
}

func TestSolveFrameWithoutPlanFails(t *testing.T) {
	uc := NewFabrikUsecase(FabrikUsecaseDeps{Scene: newForkScene()})
	_, err := uc.SolveFrame(SolveFrameRequest{Frame: 0})
	if merr.ExtractErrorID(err) != model.IkErrorPlanMissing {
		t.Fatalf("expected plan missing error: %v", err)
	}
}

func TestPreSolveReportsPlanShape(t *testing.T) {
	reporter := &recordingReporter{}
	uc := NewFabrikUsecase(FabrikUsecaseDeps{Scene: newForkScene()})
	result, err := uc.PreSolve(PreSolveRequest{Handles: forkHandles(), ProgressReporter: reporter})
	if err != nil {
		t.Fatalf("presolve failed: %v", err)
	}
	if result.ChainCount != 3 || result.SubChainCount != 1 {
		t.Fatalf("plan shape mismatch: %+v", result)
	}
	if len(result.BranchJoints) != 1 || result.BranchJoints[0] != "|A|B" {
		t.Fatalf("branch joints mismatch: %v", result.BranchJoints)
	}
	if reporter.count(SolveProgressEventTypeChainsResolved) != 1 || reporter.count(SolveProgressEventTypePlanBuilt) != 1 {
		t.Fatalf("progress events mismatch: %+v", reporter.events)
	}
	plan, err := uc.Plan()
	if err != nil || plan == nil {
		t.Fatalf("plan should be cached: %v", err)
	}
	plan.Chains[0].Joints[0] = "|changed"
	cached, _ := uc.Plan()
	if cached.Chains[0].Joints[0] != "|A" {
		t.Fatalf("cached plan should not be shared")
	}
}

func TestPreSolveFailureClearsPlan(t *testing.T) {
	scene := newForkScene()
	uc := newPreparedUsecase(t, scene)
	handles := forkHandles()
	handles[0].RootPath = "|Z"
	if _, err := uc.PreSolve(PreSolveRequest{Handles: handles}); err == nil {
		t.Fatalf("presolve should fail")
	}
	plan, _ := uc.Plan()
	if plan != nil {
		t.Fatalf("plan should be cleared after failure")
	}
	if _, err := uc.SolveFrame(SolveFrameRequest{}); merr.ExtractErrorID(err) != model.IkErrorPlanMissing {
		t.Fatalf("solve should be disabled: %v", err)
	}
}

func TestSolveFrameAveragesBranchContributions(t *testing.T) {
	scene := newForkScene()
	initial := newForkScene()
	uc := newPreparedUsecase(t, scene)
	reporter := &recordingReporter{}

	result, err := uc.SolveFrame(SolveFrameRequest{Frame: 3, ProgressReporter: reporter})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	contributions := make([]mmath.Vec3, 0, 2)
	for _, handle := range forkHandles() {
		parent, _ := model.ParentJointPath(handle.EffectorPath)
		joints, _ := model.JointPathsBetween(handle.RootPath, parent)
		children, _ := initial.GetChildren(parent)
		joints = append(joints, children[0])
		positions, err := readPositions(joints, initial.GetPosition)
		if err != nil {
			t.Fatalf("read positions failed: %v", err)
		}
		outcome, err := SolvePositions(positions, mmath.Distances(positions), handle.Target, DefaultSolveOptions())
		if err != nil {
			t.Fatalf("reference solve failed: %v", err)
		}
		contributions = append(contributions, outcome.Positions[1])
	}
	want, _ := mmath.Mean(contributions)

	pose := result.Pose
	if pose.Frame != 3 || len(pose.Chains) != 3 || len(pose.Joints) != 6 {
		t.Fatalf("pose shape mismatch: frame=%d chains=%d joints=%d", pose.Frame, len(pose.Chains), len(pose.Joints))
	}
	sub := pose.Chains[2]
	if sub.Label != "|A|B" {
		t.Fatalf("sub chain label mismatch: %s", sub.Label)
	}
	if !sub.Target.NearEquals(want, 1e-12) {
		t.Fatalf("averaged target mismatch: got=%v want=%v", sub.Target, want)
	}
	if !sub.Target.NearEquals(mmath.NewVec3(0, want.Y, 0), 1e-9) {
		t.Fatalf("mirrored contributions should average on the axis: %v", sub.Target)
	}

	root, _ := scene.GetPosition("|A")
	if !root.NearEquals(mmath.NewVec3(0, 0, 0), 1e-12) {
		t.Fatalf("root moved: %v", root)
	}
	if reporter.count(SolveProgressEventTypeChainSolved) != 3 || reporter.count(SolveProgressEventTypeFrameSolved) != 1 {
		t.Fatalf("progress events mismatch: %+v", reporter.events)
	}
}

func TestSolveFrameHandleChainsDoNotWriteBranchJoint(t *testing.T) {
	scene := newForkScene()
	uc := newPreparedUsecase(t, scene)
	plan := uc.plan
	uc.plan = &model.SolvePlan{
		Chains:                plan.Chains[:2],
		BranchJoints:          plan.BranchJoints,
		ExpectedContributions: plan.ExpectedContributions,
	}
	if _, err := uc.SolveFrame(SolveFrameRequest{}); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	for _, path := range scene.writes {
		if path == "|A" || path == "|A|B" {
			t.Fatalf("handle chain wrote parent-owned joint: %s", path)
		}
	}
}

func TestSolveFrameUsesTargetOverride(t *testing.T) {
	scene := newForkScene()
	uc := newPreparedUsecase(t, scene)
	override := mmath.NewVec3(-0.5, 2.0, 0.5)
	result, err := uc.SolveFrame(SolveFrameRequest{
		Targets: map[string]mmath.Vec3{"leftHandle": override},
	})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !result.Pose.Chains[0].Target.NearEquals(override, 0) {
		t.Fatalf("override not used: %v", result.Pose.Chains[0].Target)
	}
	if !result.Pose.Chains[1].Target.NearEquals(forkHandles()[1].Target, 0) {
		t.Fatalf("fixed target not used: %v", result.Pose.Chains[1].Target)
	}
}

func TestSolveFrameRejectsIncompleteContributions(t *testing.T) {
	scene := newForkScene()
	uc := newPreparedUsecase(t, scene)
	plan := uc.plan
	uc.plan = &model.SolvePlan{
		Chains:                []*model.Chain{plan.Chains[0], plan.Chains[2]},
		BranchJoints:          plan.BranchJoints,
		ExpectedContributions: plan.ExpectedContributions,
	}
	_, err := uc.SolveFrame(SolveFrameRequest{})
	if merr.ExtractErrorID(err) != model.IkErrorBranchContributionIncomplete {
		t.Fatalf("expected incomplete contribution error: %v", err)
	}
}

func TestSolveFrameRepeatsWithFreshContext(t *testing.T) {
	scene := newForkScene()
	uc := newPreparedUsecase(t, scene)
	for frame := 0; frame < 3; frame++ {
		if _, err := uc.SolveFrame(SolveFrameRequest{Frame: frame}); err != nil {
			t.Fatalf("frame %d failed: %v", frame, err)
		}
	}
}
