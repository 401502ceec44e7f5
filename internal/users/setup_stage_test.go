package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

func TestSetupStageTransitionTable(t *testing.T) {
	for i, stage := range enums.SetupStages {
		next, ok := Next(stage)
		if stage == enums.SetupStageComplete {
			assert.False(t, ok, "COMPLETE is terminal")
			continue
		}
		require.True(t, ok)
		assert.Equal(t, enums.SetupStages[i+1], next)
	}
}

func TestSetupStageStrictPolicy(t *testing.T) {
	m := NewSetupStageMachine(config.SetupStageStrict)

	cases := []struct {
		name    string
		from    enums.UserSetupStage
		to      enums.UserSetupStage
		changed bool
		code    pkgerrors.Code
	}{
		{name: "successor", from: enums.SetupStageInitial, to: enums.SetupStageBasicInfo, changed: true},
		{name: "last step", from: enums.SetupStageBioInformation, to: enums.SetupStageComplete, changed: true},
		{name: "replay", from: enums.SetupStageBasicInfo, to: enums.SetupStageBasicInfo},
		{name: "replay complete", from: enums.SetupStageComplete, to: enums.SetupStageComplete},
		{name: "skip", from: enums.SetupStageInitial, to: enums.SetupStageComplete, code: pkgerrors.CodeStateConflict},
		{name: "skip one", from: enums.SetupStageBasicInfo, to: enums.SetupStageBioInformation, code: pkgerrors.CodeStateConflict},
		{name: "backwards", from: enums.SetupStageBioInformation, to: enums.SetupStageBasicInfo, code: pkgerrors.CodeStateConflict},
		{name: "after complete", from: enums.SetupStageComplete, to: enums.SetupStageInitial, code: pkgerrors.CodeStateConflict},
		{name: "unknown target", from: enums.SetupStageInitial, to: "DONE", code: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := m.Validate(tc.from, tc.to)
			if tc.code != "" {
				require.Error(t, err)
				assert.Equal(t, tc.code, pkgerrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.changed, tr.Changed)
			assert.Equal(t, tc.to, tr.To)
		})
	}
}

func TestSetupStagePermissivePolicy(t *testing.T) {
	m := NewSetupStageMachine(config.SetupStagePermissive)
	assert.Equal(t, config.SetupStagePermissive, m.Policy())

	tr, err := m.Validate(enums.SetupStageInitial, enums.SetupStageComplete)
	require.NoError(t, err)
	assert.True(t, tr.Changed)

	tr, err = m.Validate(enums.SetupStageBasicInfo, enums.SetupStageBioInformation)
	require.NoError(t, err)
	assert.True(t, tr.Changed)

	tr, err = m.Validate(enums.SetupStageBasicInfo, enums.SetupStageBasicInfo)
	require.NoError(t, err)
	assert.False(t, tr.Changed)

	_, err = m.Validate(enums.SetupStageBioInformation, enums.SetupStageInitial)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = m.Validate(enums.SetupStageComplete, enums.SetupStageBioInformation)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestSetupStageUnknownPolicyIsStrict(t *testing.T) {
	m := NewSetupStageMachine("")
	assert.Equal(t, config.SetupStageStrict, m.Policy())
	_, err := m.Validate(enums.SetupStageInitial, enums.SetupStageBioInformation)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestSetupStageConflictCarriesDetails(t *testing.T) {
	m := NewSetupStageMachine(config.SetupStageStrict)
	_, err := m.Validate(enums.SetupStageInitial, enums.SetupStageOrganizationSelection)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, enums.SetupStageBasicInfo, details["allowedStage"])
}
