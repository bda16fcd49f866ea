package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionmodels "votacao/internal/session/models"
	dErrors "votacao/pkg/domain-errors"
)

func TestChoiceJSON(t *testing.T) {
	var body struct {
		Vote Choice `json:"vote"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"vote":"Yes"}`), &body))
	assert.Equal(t, ChoiceYes, body.Vote)

	require.NoError(t, json.Unmarshal([]byte(`{"vote":"no"}`), &body))
	assert.Equal(t, ChoiceNo, body.Vote)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vote":"No"}`, string(out))

	err = json.Unmarshal([]byte(`{"vote":"Maybe"}`), &body)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestChoiceDBValue(t *testing.T) {
	assert.Equal(t, "YES", ChoiceYes.DBValue())
	assert.Equal(t, "NO", ChoiceNo.DBValue())
}

func TestTallySnapshotMergeNeverGoesBackward(t *testing.T) {
	prev := TallySnapshot{Yes: 3, No: 1, Status: sessionmodels.StatusOpen}

	got := prev.Merge(TallySnapshot{Yes: 2, No: 4, Status: sessionmodels.StatusOpen})
	assert.Equal(t, int64(3), got.Yes)
	assert.Equal(t, int64(4), got.No)

	closed := got.Merge(TallySnapshot{Yes: 5, Status: sessionmodels.StatusClosed})
	assert.Equal(t, TallySnapshot{Yes: 5, No: 4, Status: sessionmodels.StatusClosed}, closed)

	assert.True(t, closed.Merge(TallySnapshot{Status: sessionmodels.StatusOpen}).Closed())
}
