package contribution

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herbarium/internal/herbal"
)

func TestBuildClinicalNoteLengthBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		note    string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "     ", true},
		{"nineteen", strings.Repeat("x", 19), true},
		{"twenty", strings.Repeat("x", 20), false},
		{"two thousand", strings.Repeat("x", 2000), false},
		{"two thousand one", strings.Repeat("x", 2001), true},
		{"multibyte twenty", strings.Repeat("é", 20), false},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			payload, err := Build("clinical_note", Fields{FormulaID: "f-1", ClinicalNote: tt.note})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, TypeClinicalNote, payload.ContributionType)
				assert.Equal(t, "f-1", payload.FormulaID)
				assert.Nil(t, payload.Modifications)
				return
			}
			var errs Errors
			require.ErrorAs(t, err, &errs)
			assert.NotEmpty(t, errs.Field("clinical_note"))
			assert.Equal(t, Payload{}, payload)
		})
	}
}

func TestBuildModificationRequiresEntries(t *testing.T) {
	t.Parallel()

	_, err := Build("modification", Fields{FormulaID: "f-1", Modifications: []Modification{}})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "Add at least one herb modification.", errs.Field("modifications"))
}

func TestBuildModificationRejectsTooManyEntries(t *testing.T) {
	t.Parallel()

	mods := make([]Modification, MaxModifications+1)
	for i := range mods {
		mods[i] = Modification{HerbID: "herb-1", HerbTitle: "Ginger", Action: ActionAdd, Rationale: "Warms the middle."}
	}

	payload, err := Build("modification", Fields{FormulaID: "f-1", Modifications: mods})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "Too many modification rows. At most 50 are accepted.", errs.Field("modifications"))
	assert.Equal(t, Payload{}, payload)

	_, err = Build("modification", Fields{FormulaID: "f-1", Modifications: mods[:MaxModifications]})
	require.NoError(t, err)
}

func TestBuildModificationValidatesEachEntry(t *testing.T) {
	t.Parallel()

	_, err := Build("modification", Fields{
		FormulaID: "f-1",
		Modifications: []Modification{
			{HerbID: "herb-1", HerbTitle: "Ginger", Action: ActionAdd, Rationale: "Warms the middle."},
			{Action: "", HerbTitle: "", Rationale: ""},
			{HerbID: "herb-3", HerbTitle: "Mint", Action: "replace", Rationale: "x", Quantity: -1},
		},
	})

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Empty(t, errs.Field(ModificationField(0, "action")))
	assert.Equal(t, "Choose an action.", errs.Field(ModificationField(1, "action")))
	assert.NotEmpty(t, errs.Field(ModificationField(1, "herb_title")))
	assert.NotEmpty(t, errs.Field(ModificationField(1, "herb_id")))
	assert.NotEmpty(t, errs.Field(ModificationField(1, "rationale")))
	assert.Equal(t, "Action must be add, remove or modify.", errs.Field(ModificationField(2, "action")))
	assert.NotEmpty(t, errs.Field(ModificationField(2, "quantity")))
}

func TestBuildModificationNormalizesPayload(t *testing.T) {
	t.Parallel()

	payload, err := Build("modification", Fields{
		FormulaID: " f-9 ",
		Context:   "  For patients with cold extremities ",
		Modifications: []Modification{
			{HerbID: "h-1", HerbTitle: " Cinnamon Twig ", Action: "ADD", Quantity: 6, Role: "Deputy", Function: "warms channels", Rationale: "Adds warmth"},
			{HerbID: "h-2", HerbTitle: "Peony", Action: "remove", Quantity: 9, Unit: "g", Role: "chief", Function: "x", Rationale: "Too cooling"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, TypeModification, payload.ContributionType)
	assert.Equal(t, "f-9", payload.FormulaID)
	assert.Equal(t, "For patients with cold extremities", payload.Context)
	assert.Empty(t, payload.ClinicalNote)
	require.Len(t, payload.Modifications, 2)

	add := payload.Modifications[0]
	assert.Equal(t, ActionAdd, add.Action)
	assert.Equal(t, "Cinnamon Twig", add.HerbTitle)
	assert.Equal(t, "g", add.Unit)
	assert.Equal(t, herbal.RoleDeputy, add.Role)

	remove := payload.Modifications[1]
	assert.Equal(t, ActionRemove, remove.Action)
	assert.Zero(t, remove.Quantity)
	assert.Empty(t, remove.Unit)
	assert.Equal(t, herbal.RoleUnassigned, remove.Role)
	assert.Empty(t, remove.Function)
}

func TestBuildAdditionBehavesLikeModification(t *testing.T) {
	t.Parallel()

	_, err := Build("addition", Fields{FormulaID: "f-1"})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.NotEmpty(t, errs.Field("modifications"))
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := Build("essay", Fields{FormulaID: "f-1"})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.NotEmpty(t, errs.Field("contribution_type"))
}

func TestBuildRequiresFormula(t *testing.T) {
	t.Parallel()

	_, err := Build("clinical_note", Fields{ClinicalNote: strings.Repeat("n", 30)})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.NotEmpty(t, errs.Field("formula_id"))
	assert.Contains(t, err.Error(), "formula_id")
}

type recordingEndpoint struct {
	calls   int
	author  Author
	payload Payload
	result  Contribution
	err     error
}

func (e *recordingEndpoint) CreateContribution(_ context.Context, author Author, payload Payload) (Contribution, error) {
	e.calls++
	e.author = author
	e.payload = payload
	return e.result, e.err
}

func notePayload(t *testing.T) Payload {
	t.Helper()
	payload, err := Build("clinical_note", Fields{FormulaID: "f-1", ClinicalNote: strings.Repeat("a", 25)})
	require.NoError(t, err)
	return payload
}

func TestSubmitWithoutAuthorNeverCallsEndpoint(t *testing.T) {
	t.Parallel()

	endpoint := &recordingEndpoint{}
	submitter := NewSubmitter(endpoint)

	_, err := submitter.Submit(context.Background(), nil, notePayload(t))
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = submitter.Submit(context.Background(), &Author{ID: "  "}, notePayload(t))
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	assert.Zero(t, endpoint.calls)
	assert.Equal(t, "Please sign in to contribute.", FailureMessage(err))
}

type endpointFailure struct{ message string }

func (e endpointFailure) Error() string       { return "cms: " + e.message }
func (e endpointFailure) UserMessage() string { return e.message }

func TestSubmitSurfacesEndpointMessageVerbatim(t *testing.T) {
	t.Parallel()

	endpoint := &recordingEndpoint{err: endpointFailure{message: "Formula is locked for review"}}
	submitter := NewSubmitter(endpoint)

	_, err := submitter.Submit(context.Background(), &Author{ID: "7"}, notePayload(t))
	require.Error(t, err)
	assert.Equal(t, 1, endpoint.calls)
	assert.Equal(t, "Formula is locked for review", FailureMessage(err))
	assert.Equal(t, "We couldn't submit your contribution. Please try again.", FailureMessage(errors.New("boom")))
}

func TestSubmitReturnsPendingReceipt(t *testing.T) {
	t.Parallel()

	endpoint := &recordingEndpoint{result: Contribution{ID: "remote-1", Status: StatusPending}}
	submitter := NewSubmitter(endpoint)

	receipt, err := submitter.Submit(context.Background(), &Author{ID: "7", Name: "Rowan"}, notePayload(t))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, receipt.Status)
	assert.Equal(t, "remote-1", receipt.RemoteID)
	assert.Equal(t, "f-1", receipt.FormulaID)
	assert.NotEmpty(t, receipt.ID)
	assert.False(t, receipt.SubmittedAt.IsZero())
	assert.Equal(t, "7", endpoint.author.ID)
	assert.Equal(t, TypeClinicalNote, endpoint.payload.ContributionType)
}

func TestApprovedFiltersPendingAndRejected(t *testing.T) {
	t.Parallel()

	list := []Contribution{
		{ID: "1", Status: StatusApproved},
		{ID: "2", Status: StatusPending},
		{ID: "3", Status: StatusRejected},
		{ID: "4", Status: ParseStatus("APPROVED")},
	}
	approved := Approved(list)
	require.Len(t, approved, 2)
	assert.Equal(t, "1", approved[0].ID)
	assert.Equal(t, "4", approved[1].ID)
}
