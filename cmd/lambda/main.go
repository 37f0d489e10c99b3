//go:build lambda

// 指示: miu200521358
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/miu200521358/mu_fabrik/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_fabrik/pkg/adapter/scene"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/infra/base/mlogging"
	"github.com/miu200521358/mu_fabrik/pkg/infra/config"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

const maxLambdaFrames = 600

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// solveRequest はFunction URLで受け取る解決要求を表す。
type solveRequest struct {
	Rig        json.RawMessage `json:"rig"`
	StartFrame int             `json:"start"`
	Frames     int             `json:"frames"`
	Fps        float64         `json:"fps"`
}

// memoryPoseWriter は保存せずにJSONを保持する。
type memoryPoseWriter struct {
	body []byte
}

// Save はポーズ列をJSONへ変換して保持する。
func (w *memoryPoseWriter) Save(_ string, poses *model.PoseSequence) error {
	b, err := io_rig.MarshalPoses(poses)
	if err != nil {
		return err
	}
	w.body = b
	return nil
}

func handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "", "invalid base64 body")
		}
		body = string(decoded)
	}

	var req solveRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(400, "", "invalid JSON: "+err.Error())
	}
	if len(req.Rig) == 0 {
		return errResp(400, "", "missing rig field")
	}
	if req.Frames > maxLambdaFrames {
		return errResp(400, "", fmt.Sprintf("frames must be <= %d", maxLambdaFrames))
	}

	rig, err := io_rig.ParseRigJSON(req.Rig)
	if err != nil {
		return errResp(400, model.IkErrorRigLoadFailed, err.Error())
	}
	if rig.Name == "" {
		rig.Name = "rig"
	}

	cfg := config.Default()
	fps := req.Fps
	if fps <= 0 {
		fps = cfg.Solver.Fps
	}
	writer := &memoryPoseWriter{}
	usecase := minteractor.NewFabrikUsecase(minteractor.FabrikUsecaseDeps{
		PoseWriter: writer,
		Options: minteractor.SolveOptions{
			MaxIterations: cfg.Solver.MaxIterations,
			Tolerance:     cfg.Solver.Tolerance,
		},
	})
	_, err = usecase.SolveRig(minteractor.SolveRigRequest{
		RigData:      rig,
		OutputPath:   filepath.Join(os.TempDir(), rig.Name+"_solved.json"),
		SceneBuilder: buildScene,
		Animation: minteractor.AnimationRequest{
			StartFrame: req.StartFrame,
			FrameCount: req.Frames,
			Fps:        fps,
		},
	})
	if err != nil {
		status := 500
		if kind := merr.ExtractErrorKind(err); kind == merr.ErrorKindTopology || kind == merr.ErrorKindInput {
			status = 422
		}
		return errResp(status, merr.ExtractErrorID(err), err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(writer.body)}, nil
}

func buildScene(rig *model.RigData) (moutput.ISceneGraph, error) {
	graph, err := scene.NewMemorySceneGraph(rig)
	if err != nil {
		return nil, err
	}
	return graph, nil
}

func errResp(code int, id string, msg string) (events.LambdaFunctionURLResponse, error) {
	payload := map[string]string{"error": msg}
	if id != "" {
		payload["id"] = id
	}
	body, _ := json.Marshal(payload)
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	logger := mlogging.NewLogger(os.Stderr)
	logger.SetLevel(logging.LOG_LEVEL_WARN)
	logging.SetDefaultLogger(logger)
	lambda.Start(handler)
}
