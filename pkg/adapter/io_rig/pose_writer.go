// 指示: miu200521358
package io_rig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

const poseFileMode = 0o644

// poseDocument は解決済みポーズの保存形式を表す。
type poseDocument struct {
	Rig    string          `json:"rig"`
	Frames []frameDocument `json:"frames"`
}

// frameDocument は1フレーム分の保存形式を表す。
type frameDocument struct {
	Frame  int             `json:"frame"`
	Joints []jointPosition `json:"joints"`
	Chains []chainDocument `json:"chains"`
}

// jointPosition はジョイント位置の保存形式を表す。
type jointPosition struct {
	Path     string     `json:"path"`
	Position [3]float64 `json:"position"`
}

// chainDocument はチェーン解決結果の保存形式を表す。
type chainDocument struct {
	Label       string     `json:"label"`
	Target      [3]float64 `json:"target"`
	Iterations  int        `json:"iterations"`
	Converged   bool       `json:"converged"`
	Stretched   bool       `json:"stretched"`
	TipDistance float64    `json:"tip_distance"`
}

// Save は解決済みポーズ列をJSONで保存する。
func (r *RigRepository) Save(path string, poses *model.PoseSequence) error {
	if poses == nil {
		return fmt.Errorf("保存対象ポーズが未設定です")
	}
	b, err := MarshalPoses(poses)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, poseFileMode); err != nil {
		return fmt.Errorf("ポーズファイルの書き込みに失敗しました: %w", err)
	}
	logRigInfo("ポーズ保存完了: file=%s frames=%d", filepath.Base(path), len(poses.Frames))
	return nil
}

// MarshalPoses はポーズ列を整形済みJSONへ変換する。
func MarshalPoses(poses *model.PoseSequence) ([]byte, error) {
	doc := poseDocument{Rig: poses.RigName, Frames: make([]frameDocument, 0, len(poses.Frames))}
	for _, frame := range poses.Frames {
		frameDoc := frameDocument{
			Frame:  frame.Frame,
			Joints: make([]jointPosition, 0, len(frame.Joints)),
			Chains: make([]chainDocument, 0, len(frame.Chains)),
		}
		for _, joint := range frame.Joints {
			frameDoc.Joints = append(frameDoc.Joints, jointPosition{
				Path:     joint.Path,
				Position: [3]float64{joint.Position.X, joint.Position.Y, joint.Position.Z},
			})
		}
		for _, chain := range frame.Chains {
			frameDoc.Chains = append(frameDoc.Chains, chainDocument{
				Label:       chain.Label,
				Target:      [3]float64{chain.Target.X, chain.Target.Y, chain.Target.Z},
				Iterations:  chain.Iterations,
				Converged:   chain.Converged,
				Stretched:   chain.Stretched,
				TipDistance: chain.TipDistance,
			})
		}
		doc.Frames = append(doc.Frames, frameDoc)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ポーズのJSON変換に失敗しました: %w", err)
	}
	return pretty.Pretty(b), nil
}
