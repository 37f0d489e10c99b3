// 指示: miu200521358
package model

import "testing"

func TestIkErrorIDsAreNonEmptyAndUnique(t *testing.T) {
	errorIDs := []string{
		IkErrorNoHandles,
		IkErrorEffectorParentMissing,
		IkErrorRootNotAncestor,
		IkErrorEffectorChildNotUnique,
		IkErrorChainTooShort,
		IkErrorJointPositionMissing,
		IkErrorBranchContributionIncomplete,
		IkErrorInvalidSolveInput,
		IkErrorPlanMissing,
		IkErrorRigLoadFailed,
		IkErrorRigSaveFailed,
		IkErrorTargetExpressionInvalid,
		IkErrorConfigLoadFailed,
	}

	seen := map[string]struct{}{}
	for _, errorID := range errorIDs {
		if errorID == "" {
			t.Fatalf("error id should not be empty")
		}
		if _, exists := seen[errorID]; exists {
			t.Fatalf("error id should be unique: %s", errorID)
		}
		seen[errorID] = struct{}{}
	}
}
