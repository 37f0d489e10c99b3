// 指示: miu200521358
package io_rig

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

var (
	_ moutput.IRigReader  = (*RigRepository)(nil)
	_ moutput.IPoseWriter = (*RigRepository)(nil)
)

const sampleYamlRig = `
name: arm
joints:
  - name: shoulder
    position: [0, 0, 0]
    children:
      - name: elbow
        position: [0, 1, 0]
        children:
          - name: wrist
            position: [0, 2, 0]
handles:
  - name: armIk
    effector: "|shoulder|elbow|armIk_effector"
    root: "|shoulder"
    target: [1, 1, 0]
    track:
      x: "1 + sin(t)"
  - name: idle
    effector: "|shoulder|elbow|idle_effector"
    root: "|shoulder"
    priority: 9
    target: [0, 2, 0]
`

const sampleJsonRig = `{
  "joints": [
    {"path": "|root", "position": [0, 0, 0]},
    {"path": "|root|mid", "position": [0, 1, 0]},
    {"path": "|root|mid|tip", "position": [0, 2, 0]}
  ],
  "handles": [
    {"name": "ik", "effector": "|root|mid|ik_effector", "root": "|root", "priority": 2, "target": [1, 1, 0], "track": {"y": "frame"}}
  ]
}`

const sampleGltfRig = `{
  "nodes": [
    {"name": "hips", "translation": [0, 1, 0], "children": [1, 2]},
    {"name": "leftUpperArm", "translation": [1, 0, 0], "children": [3]},
    {"name": "spine", "translation": [0, 1, 0]},
    {"name": "leftLowerArm", "translation": [1, 0, 0], "children": [4]},
    {"name": "leftHand", "translation": [1, 0, 0]}
  ],
  "extensions": {
    "VRM": {
      "humanoid": {
        "humanBones": [
          {"bone": "leftUpperArm", "node": 1},
          {"bone": "leftLowerArm", "node": 3},
          {"bone": "leftHand", "node": 4},
          {"bone": "rightHand", "node": 2}
        ]
      }
    }
  }
}`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	return path
}

func buildGLB(jsonChunk []byte) []byte {
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	var buf bytes.Buffer
	total := uint32(glbHeaderLength + glbChunkHeadSize + len(jsonChunk))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(glbMagic))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(2))
	_ = binary.Write(&buf, binary.LittleEndian, total)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(jsonChunk)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(glbJSONChunkType))
	buf.Write(jsonChunk)
	return buf.Bytes()
}

func TestRigRepositoryCanLoad(t *testing.T) {
	repository := NewRigRepository()
	for _, path := range []string{"a.yaml", "a.YML", "a.json", "a.glb", "a.gltf", "a.vrm"} {
		if !repository.CanLoad(path) {
			t.Fatalf("expected %s to be loadable", path)
		}
	}
	if repository.CanLoad("a.pmx") {
		t.Fatalf("expected a.pmx to be not loadable")
	}
	if repository.InferName("C:/work/arm.yaml") != "arm" {
		t.Fatalf("infer name mismatch: %s", repository.InferName("C:/work/arm.yaml"))
	}
}

func TestRigRepositoryLoadYaml(t *testing.T) {
	path := writeFile(t, t.TempDir(), "arm.yaml", []byte(sampleYamlRig))
	events := make([]LoadProgressEventType, 0)
	repository := NewRigRepository()
	repository.SetLoadProgressReporter(func(event LoadProgressEvent) {
		events = append(events, event.Type)
	})

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rig.Name != "arm" || rig.Path != path {
		t.Fatalf("rig identity mismatch: %s %s", rig.Name, rig.Path)
	}
	wantPaths := []string{"|shoulder", "|shoulder|elbow", "|shoulder|elbow|wrist"}
	if len(rig.Joints) != len(wantPaths) {
		t.Fatalf("joint count mismatch: %d", len(rig.Joints))
	}
	for i, want := range wantPaths {
		if rig.Joints[i].Path != want {
			t.Fatalf("joint %d path mismatch: got=%s want=%s", i, rig.Joints[i].Path, want)
		}
	}
	if !rig.Joints[2].Position.NearEquals(mmath.NewVec3(0, 2, 0), 0) {
		t.Fatalf("wrist position mismatch: %v", rig.Joints[2].Position)
	}
	handle, ok := rig.HandleByName("armIk")
	if !ok || handle.Priority != 0 || handle.Track.X != "1 + sin(t)" {
		t.Fatalf("armIk mismatch: %+v", handle)
	}
	idle, _ := rig.HandleByName("idle")
	if idle.Priority != 9 {
		t.Fatalf("explicit priority mismatch: %d", idle.Priority)
	}
	if len(events) != 3 || events[0] != LoadProgressEventTypeFileReadComplete || events[2] != LoadProgressEventTypeCompleted {
		t.Fatalf("progress events mismatch: %v", events)
	}
}

func TestRigRepositoryLoadJson(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chain.json", []byte(sampleJsonRig))
	rig, err := NewRigRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rig.Name != "chain" || len(rig.Joints) != 3 || len(rig.Handles) != 1 {
		t.Fatalf("rig shape mismatch: name=%s joints=%d handles=%d", rig.Name, len(rig.Joints), len(rig.Handles))
	}
	handle := rig.Handles[0]
	if handle.Priority != 2 || handle.Track.Y != "frame" || !handle.Target.NearEquals(mmath.NewVec3(1, 1, 0), 0) {
		t.Fatalf("handle mismatch: %+v", handle)
	}
}

func TestRigRepositoryLoadGltfHumanoid(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "avatar.gltf", data: []byte(sampleGltfRig)},
		{name: "avatar.vrm", data: buildGLB([]byte(sampleGltfRig))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rig, err := NewRigRepository().Load(writeFile(t, dir, tc.name, tc.data))
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if len(rig.Joints) != 5 || rig.Joints[4].Path != "|hips|leftUpperArm|leftLowerArm|leftHand" {
				t.Fatalf("joint paths mismatch: %+v", rig.Joints)
			}
			if !rig.Joints[4].Position.NearEquals(mmath.NewVec3(3, 1, 0), 1e-12) {
				t.Fatalf("hand world position mismatch: %v", rig.Joints[4].Position)
			}
			// rightHand は中間ボーンが無いため生成しない。
			if len(rig.Handles) != 1 {
				t.Fatalf("handle count mismatch: %+v", rig.Handles)
			}
			handle := rig.Handles[0]
			if handle.Name != "leftHandIk" || handle.RootPath != "|hips|leftUpperArm" {
				t.Fatalf("handle mismatch: %+v", handle)
			}
			if handle.EffectorPath != "|hips|leftUpperArm|leftLowerArm|leftHandIk_effector" {
				t.Fatalf("effector path mismatch: %s", handle.EffectorPath)
			}
			if !handle.Target.NearEquals(mmath.NewVec3(3, 1, 0), 1e-12) {
				t.Fatalf("target mismatch: %v", handle.Target)
			}
		})
	}
}

func TestRigRepositoryLoadGltfSidecarHandles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "avatar.gltf", []byte(sampleGltfRig))
	writeFile(t, dir, "avatar.handles.yaml", []byte(`
handles:
  - name: spineIk
    effector: "|hips|spine|spine_effector"
    root: "|hips"
    target: [0, 3, 0]
`))
	rig, err := NewRigRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(rig.Handles) != 1 || rig.Handles[0].Name != "spineIk" {
		t.Fatalf("sidecar handles should replace humanoid handles: %+v", rig.Handles)
	}
}

func TestRigRepositoryLoadErrors(t *testing.T) {
	dir := t.TempDir()
	repository := NewRigRepository()
	testCases := []struct {
		name string
		path string
	}{
		{name: "extension", path: filepath.Join(dir, "arm.pmx")},
		{name: "missing", path: filepath.Join(dir, "missing.yaml")},
		{name: "bad position", path: writeFile(t, dir, "bad.yaml", []byte("joints:\n  - path: \"|a\"\n    position: [0, 1]\n"))},
		{name: "no joints", path: writeFile(t, dir, "empty.yaml", []byte("name: empty\n"))},
		{name: "duplicate handle", path: writeFile(t, dir, "dup.json", []byte(`{"joints":[{"path":"|a","position":[0,0,0]}],"handles":[{"name":"h","effector":"|a|e","root":"|a","target":[0,0,0]},{"name":"h","effector":"|a|e","root":"|a","target":[0,0,0]}]}`))},
		{name: "broken json", path: writeFile(t, dir, "broken.json", []byte(`{"joints": [`))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repository.Load(tc.path)
			if merr.ExtractErrorID(err) != model.IkErrorRigLoadFailed {
				t.Fatalf("expected rig load error: %v", err)
			}
		})
	}
}

func TestRigRepositorySave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm_solved.json")
	poses := &model.PoseSequence{
		RigName: "arm",
		Frames: []model.FramePose{{
			Frame:  4,
			Joints: []model.Joint{{Path: "|shoulder", Position: mmath.NewVec3(0, 0, 0)}, {Path: "|shoulder|elbow", Position: mmath.NewVec3(0.5, 1, 0)}},
			Chains: []model.ChainReport{{Label: "armIk", Target: mmath.NewVec3(1, 1, 0), Iterations: 3, Converged: true, TipDistance: 0.001}},
		}},
	}
	if err := NewRigRepository().Save(path, poses); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !gjson.ValidBytes(b) {
		t.Fatalf("saved file should be valid JSON")
	}
	if gjson.GetBytes(b, "rig").String() != "arm" {
		t.Fatalf("rig name mismatch")
	}
	if gjson.GetBytes(b, "frames.0.frame").Int() != 4 {
		t.Fatalf("frame number mismatch")
	}
	if gjson.GetBytes(b, "frames.0.joints.1.position.0").Float() != 0.5 {
		t.Fatalf("joint position mismatch: %s", gjson.GetBytes(b, "frames.0.joints.1").Raw)
	}
	if !gjson.GetBytes(b, "frames.0.chains.0.converged").Bool() {
		t.Fatalf("chain report mismatch: %s", gjson.GetBytes(b, "frames.0.chains.0").Raw)
	}
	if err := NewRigRepository().Save(path, nil); err == nil {
		t.Fatalf("nil poses should fail")
	}
}
