// 指示: miu200521358
package minteractor

import (
	"fmt"
	"math"
	"sort"

	"gopkg.in/Knetic/govaluate.v3"

	"github.com/miu200521358/mu_fabrik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
)

const defaultAnimationFps = 30.0

// targetTrackFunctions はターゲット式で使える関数群。
var targetTrackFunctions = map[string]govaluate.ExpressionFunction{
	"sin":  unaryTrackFunction(math.Sin),
	"cos":  unaryTrackFunction(math.Cos),
	"abs":  unaryTrackFunction(math.Abs),
	"sqrt": unaryTrackFunction(math.Sqrt),
	"min":  binaryTrackFunction(math.Min),
	"max":  binaryTrackFunction(math.Max),
}

// TargetTrack はIKハンドルターゲットのフレームごとの式を表す。
type TargetTrack struct {
	HandleName string
	base       mmath.Vec3
	axes       [3]*govaluate.EvaluableExpression
}

// CompileTargetTrack はハンドルのターゲット式をコンパイルする。式が無い場合はnilを返す。
func CompileTargetTrack(handle model.IkHandle) (*TargetTrack, error) {
	if handle.Track.IsEmpty() {
		return nil, nil
	}
	track := &TargetTrack{HandleName: handle.Name, base: handle.Target}
	for axis, source := range []string{handle.Track.X, handle.Track.Y, handle.Track.Z} {
		if source == "" {
			continue
		}
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(source, targetTrackFunctions)
		if err != nil {
			return nil, merr.Wrap(err, model.IkErrorTargetExpressionInvalid, merr.ErrorKindInput,
				"ターゲット式を解析できません: handle=%s axis=%d expr=%q", handle.Name, axis, source)
		}
		track.axes[axis] = expression
	}
	return track, nil
}

// Evaluate は指定フレームのターゲット位置を返す。
// 式では frame(フレーム番号) と t(秒) を参照できる。
func (t *TargetTrack) Evaluate(frame int, fps float64) (mmath.Vec3, error) {
	if fps <= 0 {
		fps = defaultAnimationFps
	}
	parameters := map[string]interface{}{
		"frame": float64(frame),
		"t":     float64(frame) / fps,
	}
	values := t.base.Slice()
	for axis, expression := range t.axes {
		if expression == nil {
			continue
		}
		result, err := expression.Evaluate(parameters)
		if err != nil {
			return mmath.Vec3{}, merr.Wrap(err, model.IkErrorTargetExpressionInvalid, merr.ErrorKindInput,
				"ターゲット式を評価できません: handle=%s axis=%d", t.HandleName, axis)
		}
		value, ok := result.(float64)
		if !ok {
			return mmath.Vec3{}, merr.NewError(model.IkErrorTargetExpressionInvalid, merr.ErrorKindInput,
				"ターゲット式の結果が数値ではありません: handle=%s axis=%d result=%v", t.HandleName, axis, result)
		}
		values[axis] = value
	}
	return mmath.NewVec3(values[0], values[1], values[2]), nil
}

// AnimationRequest はフレーム範囲の解決要求を表す。
type AnimationRequest struct {
	StartFrame       int
	FrameCount       int
	Fps              float64
	ProgressReporter ISolveProgressReporter
}

// SolveAnimation はフレーム範囲を順に解決し、ポーズ列を返す。
// ターゲット式の無いハンドルは計画構築時のターゲットを使う。
func (uc *FabrikUsecase) SolveAnimation(rigName string, request AnimationRequest) (*model.PoseSequence, error) {
	if uc.plan.IsEmpty() {
		return nil, merr.NewError(model.IkErrorPlanMissing, merr.ErrorKindInput, "解決計画が準備されていません")
	}
	frameCount := request.FrameCount
	if frameCount <= 0 {
		frameCount = 1
	}

	tracks, err := uc.compileTracks()
	if err != nil {
		return nil, err
	}

	sequence := &model.PoseSequence{RigName: rigName, Frames: make([]model.FramePose, 0, frameCount)}
	for frame := request.StartFrame; frame < request.StartFrame+frameCount; frame++ {
		targets := make(map[string]mmath.Vec3, len(tracks))
		for _, track := range tracks {
			target, err := track.Evaluate(frame, request.Fps)
			if err != nil {
				return nil, err
			}
			targets[track.HandleName] = target
		}
		result, err := uc.SolveFrame(SolveFrameRequest{
			Frame:            frame,
			Targets:          targets,
			ProgressReporter: request.ProgressReporter,
		})
		if err != nil {
			return nil, fmt.Errorf("フレーム%dの解決に失敗しました: %w", frame, err)
		}
		sequence.Frames = append(sequence.Frames, result.Pose)
	}
	return sequence, nil
}

// compileTracks は登録ハンドルのターゲット式を名前順でコンパイルする。
func (uc *FabrikUsecase) compileTracks() ([]*TargetTrack, error) {
	names := make([]string, 0, len(uc.handles))
	for name := range uc.handles {
		names = append(names, name)
	}
	sort.Strings(names)

	tracks := make([]*TargetTrack, 0)
	for _, name := range names {
		track, err := CompileTargetTrack(uc.handles[name])
		if err != nil {
			return nil, err
		}
		if track != nil {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

func unaryTrackFunction(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 1 {
			return nil, fmt.Errorf("引数は1つ必要です: %d", len(arguments))
		}
		value, ok := arguments[0].(float64)
		if !ok {
			return nil, fmt.Errorf("引数が数値ではありません: %v", arguments[0])
		}
		return fn(value), nil
	}
}

func binaryTrackFunction(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 2 {
			return nil, fmt.Errorf("引数は2つ必要です: %d", len(arguments))
		}
		left, leftOk := arguments[0].(float64)
		right, rightOk := arguments[1].(float64)
		if !leftOk || !rightOk {
			return nil, fmt.Errorf("引数が数値ではありません: %v", arguments)
		}
		return fn(left, right), nil
	}
}
