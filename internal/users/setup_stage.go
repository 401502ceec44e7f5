package users

import (
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

// setupTransitions maps every non-terminal stage to its successor.
var setupTransitions = map[enums.UserSetupStage]enums.UserSetupStage{
	enums.SetupStageInitial:               enums.SetupStageBasicInfo,
	enums.SetupStageBasicInfo:             enums.SetupStageOrganizationSelection,
	enums.SetupStageOrganizationSelection: enums.SetupStageBioInformation,
	enums.SetupStageBioInformation:        enums.SetupStageComplete,
}

// Transition is the validated result of a stage change request.
type Transition struct {
	From    enums.UserSetupStage
	To      enums.UserSetupStage
	Changed bool
}

// SetupStageMachine validates setup stage moves. Stages never revert and
// COMPLETE is terminal. Strict allows only the successor; permissive allows
// any forward jump. Both treat a replay of the current stage as a no-op.
type SetupStageMachine struct {
	policy config.SetupStagePolicy
}

func NewSetupStageMachine(policy config.SetupStagePolicy) SetupStageMachine {
	if policy != config.SetupStagePermissive {
		policy = config.SetupStageStrict
	}
	return SetupStageMachine{policy: policy}
}

func (m SetupStageMachine) Policy() config.SetupStagePolicy {
	return m.policy
}

// Next returns the successor of stage and whether one exists.
func Next(stage enums.UserSetupStage) (enums.UserSetupStage, bool) {
	next, ok := setupTransitions[stage]
	return next, ok
}

// Validate checks moving from current to target.
func (m SetupStageMachine) Validate(current, target enums.UserSetupStage) (Transition, error) {
	if !target.IsValid() {
		return Transition{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown setup stage %q", target)
	}
	if !current.IsValid() {
		return Transition{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "stored setup stage %q is not recognised", current)
	}
	if target == current {
		return Transition{From: current, To: current}, nil
	}

	details := map[string]any{
		"currentStage":   current,
		"requestedStage": target,
		"policy":         m.policy,
	}
	if current == enums.SetupStageComplete {
		return Transition{}, pkgerrors.New(pkgerrors.CodeStateConflict, "setup is already complete").WithDetails(details)
	}
	if target.Ordinal() < current.Ordinal() {
		return Transition{}, pkgerrors.New(pkgerrors.CodeStateConflict, "setup stage cannot move backwards").WithDetails(details)
	}
	if m.policy == config.SetupStageStrict {
		if next, _ := Next(current); target != next {
			details["allowedStage"] = next
			return Transition{}, pkgerrors.New(pkgerrors.CodeStateConflict, "setup stage cannot be skipped").WithDetails(details)
		}
	}
	return Transition{From: current, To: target, Changed: true}, nil
}
