// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/merr"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

// LoadRig はリグ定義を読み込む。
func (uc *FabrikUsecase) LoadRig(rep moutput.IRigReader, path string) (*model.RigData, error) {
	repo := rep
	if repo == nil {
		repo = uc.rigReader
	}
	if repo == nil {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindIO, "リグ読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput, "入力リグパスが未指定です")
	}
	if !repo.CanLoad(path) {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindInput, "読み込めないリグ形式です: %s", path)
	}
	rig, err := repo.Load(path)
	if err != nil {
		return nil, merr.Wrap(err, model.IkErrorRigLoadFailed, merr.ErrorKindIO, "リグの読み込みに失敗しました: %s", path)
	}
	if rig == nil {
		return nil, merr.NewError(model.IkErrorRigLoadFailed, merr.ErrorKindIO, "リグ読み込み結果が空です: %s", path)
	}
	return rig, nil
}
