// 指示: miu200521358
package model

const (
	// IkErrorNoHandles はIKハンドル未登録エラー。
	IkErrorNoHandles = "15101"
	// IkErrorEffectorParentMissing はエフェクタ親ジョイント未検出エラー。
	IkErrorEffectorParentMissing = "15102"
	// IkErrorRootNotAncestor はルートがエフェクタの祖先ではないエラー。
	IkErrorRootNotAncestor = "15103"
	// IkErrorEffectorChildNotUnique はエフェクタ直下の子ジョイントが1つではないエラー。
	IkErrorEffectorChildNotUnique = "15104"
	// IkErrorChainTooShort はジョイント数2未満のチェーンエラー。
	IkErrorChainTooShort = "15105"
	// IkErrorJointPositionMissing はジョイント位置取得失敗エラー。
	IkErrorJointPositionMissing = "15106"
	// IkErrorBranchContributionIncomplete は分岐ジョイントへの寄与不足エラー。
	IkErrorBranchContributionIncomplete = "15107"
	// IkErrorInvalidSolveInput は解決入力の不整合エラー。
	IkErrorInvalidSolveInput = "15108"
	// IkErrorPlanMissing は解決計画未準備エラー。
	IkErrorPlanMissing = "15109"

	// IkErrorRigLoadFailed はリグ読み込み失敗エラー。
	IkErrorRigLoadFailed = "15201"
	// IkErrorRigSaveFailed は解決結果保存失敗エラー。
	IkErrorRigSaveFailed = "15202"
	// IkErrorTargetExpressionInvalid はターゲット式不正エラー。
	IkErrorTargetExpressionInvalid = "15203"

	// IkErrorConfigLoadFailed は設定読み込み失敗エラー。
	IkErrorConfigLoadFailed = "15301"
)
