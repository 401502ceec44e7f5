package enums

import "fmt"

// UserSetupStage tracks progress through the profile completion wizard.
type UserSetupStage string

const (
	SetupStageInitial               UserSetupStage = "INITIAL"
	SetupStageBasicInfo             UserSetupStage = "BASIC_INFO"
	SetupStageOrganizationSelection UserSetupStage = "ORGANIZATION_SELECTION"
	SetupStageBioInformation        UserSetupStage = "BIO_INFORMATION"
	SetupStageComplete              UserSetupStage = "COMPLETE"
)

// SetupStages lists every stage in wizard order.
var SetupStages = []UserSetupStage{
	SetupStageInitial,
	SetupStageBasicInfo,
	SetupStageOrganizationSelection,
	SetupStageBioInformation,
	SetupStageComplete,
}

func (s UserSetupStage) String() string {
	return string(s)
}

// Ordinal returns the position of s in the wizard, or -1 when unknown.
func (s UserSetupStage) Ordinal() int {
	for i, candidate := range SetupStages {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s UserSetupStage) IsValid() bool {
	return s.Ordinal() >= 0
}

func ParseUserSetupStage(value string) (UserSetupStage, error) {
	stage := UserSetupStage(value)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid user setup stage %q", value)
	}
	return stage, nil
}
