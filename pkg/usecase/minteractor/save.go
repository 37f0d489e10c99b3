// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

// SavePoses は解決済みポーズ列を保存する。
func (uc *FabrikUsecase) SavePoses(rep moutput.IPoseWriter, path string, poses *model.PoseSequence) error {
	writer := rep
	if writer == nil {
		writer = uc.poseWriter
	}
	if writer == nil {
		return merr.NewError(model.IkErrorRigSaveFailed, merr.ErrorKindIO, "ポーズ保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return merr.NewError(model.IkErrorRigSaveFailed, merr.ErrorKindInput, "保存先パスが未指定です")
	}
	if poses == nil || len(poses.Frames) == 0 {
		return merr.NewError(model.IkErrorRigSaveFailed, merr.ErrorKindInput, "保存対象ポーズが未設定です")
	}
	if err := ensureOutputDir(path); err != nil {
		return merr.Wrap(err, model.IkErrorRigSaveFailed, merr.ErrorKindIO, "出力先を準備できません: %s", path)
	}
	if err := writer.Save(path, poses); err != nil {
		return merr.Wrap(err, model.IkErrorRigSaveFailed, merr.ErrorKindIO, "ポーズの保存に失敗しました: %s", path)
	}
	return nil
}
