// 指示: miu200521358
package minteractor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

type stubRigReader struct {
	rig *model.RigData
	err error
}

func (r *stubRigReader) CanLoad(path string) bool {
	return filepath.Ext(path) == ".yaml"
}

func (r *stubRigReader) Load(path string) (*model.RigData, error) {
	return r.rig, r.err
}

type stubPoseWriter struct {
	path  string
	poses *model.PoseSequence
}

func (w *stubPoseWriter) Save(path string, poses *model.PoseSequence) error {
	w.path = path
	w.poses = poses
	return nil
}

func forkRig() *model.RigData {
	return &model.RigData{Name: "fork", Handles: forkHandles()}
}

func forkSceneBuilder(*model.RigData) (moutput.ISceneGraph, error) {
	return newForkScene(), nil
}

func TestLoadRigValidatesReader(t *testing.T) {
	uc := NewFabrikUsecase(FabrikUsecaseDeps{})
	if _, err := uc.LoadRig(nil, "arm.yaml"); merr.ExtractErrorID(err) != model.IkErrorRigLoadFailed {
		t.Fatalf("missing reader should fail: %v", err)
	}
	reader := &stubRigReader{rig: forkRig()}
	if _, err := uc.LoadRig(reader, "arm.txt"); err == nil {
		t.Fatalf("unsupported extension should fail")
	}
	reader.err = errors.New("broken")
	if _, err := uc.LoadRig(reader, "arm.yaml"); merr.ExtractErrorID(err) != model.IkErrorRigLoadFailed {
		t.Fatalf("reader error should be wrapped: %v", err)
	}
}

func TestSavePosesValidatesInput(t *testing.T) {
	writer := &stubPoseWriter{}
	uc := NewFabrikUsecase(FabrikUsecaseDeps{PoseWriter: writer})
	if err := uc.SavePoses(nil, "", &model.PoseSequence{}); err == nil {
		t.Fatalf("empty path should fail")
	}
	if err := uc.SavePoses(nil, "out.json", &model.PoseSequence{}); err == nil {
		t.Fatalf("empty sequence should fail")
	}
	poses := &model.PoseSequence{Frames: []model.FramePose{{Frame: 0}}}
	if err := uc.SavePoses(nil, "out.json", poses); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if writer.path != "out.json" || writer.poses != poses {
		t.Fatalf("default writer not used: %s", writer.path)
	}
}

func TestSolveRigRunsWholePipeline(t *testing.T) {
	dir := t.TempDir()
	rigPath := filepath.Join(dir, "fork.yaml")
	outputPath := filepath.Join(dir, "out", "fork_solved.json")
	reader := &stubRigReader{rig: forkRig()}
	writer := &stubPoseWriter{}
	reporter := &recordingReporter{}

	uc := NewFabrikUsecase(FabrikUsecaseDeps{RigReader: reader, PoseWriter: writer})
	result, err := uc.SolveRig(SolveRigRequest{
		RigPath:      rigPath,
		OutputPath:   outputPath,
		SceneBuilder: forkSceneBuilder,
		Animation:    AnimationRequest{FrameCount: 2, ProgressReporter: reporter},
		PreviewSize:  32,
	})
	if err != nil {
		t.Fatalf("solve rig failed: %v", err)
	}
	if result.OutputPath != outputPath || writer.path != outputPath {
		t.Fatalf("output path mismatch: %s %s", result.OutputPath, writer.path)
	}
	if len(result.Poses.Frames) != 2 || result.PreSolve.ChainCount != 3 {
		t.Fatalf("result shape mismatch: frames=%d chains=%d", len(result.Poses.Frames), result.PreSolve.ChainCount)
	}
	if result.PreviewPath != filepath.Join(dir, "out", "fork_preview.bmp") {
		t.Fatalf("preview path mismatch: %s", result.PreviewPath)
	}
	if _, err := os.Stat(result.PreviewPath); err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	if reporter.count(SolveProgressEventTypeRigLoaded) != 1 || reporter.count(SolveProgressEventTypePoseSaved) != 1 {
		t.Fatalf("pipeline events mismatch: %+v", reporter.events)
	}
}

func TestSolveRigRequiresInput(t *testing.T) {
	uc := NewFabrikUsecase(FabrikUsecaseDeps{})
	if _, err := uc.SolveRig(SolveRigRequest{}); err == nil {
		t.Fatalf("missing rig should fail")
	}
}
