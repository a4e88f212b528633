package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepOrdinalsAreContiguous(t *testing.T) {
	for i, step := range Steps {
		assert.Equal(t, i, step.Ordinal, step.ID)
	}
}

func TestContactStepRejectsBadEmail(t *testing.T) {
	state := validState()
	state.Email = "not-an-address"

	errs, err := ValidateStep("contact", Normalize(state))
	require.NoError(t, err)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[FieldEmail], "not valid")
}

func TestContactStepRequiresNameAndEmail(t *testing.T) {
	errs, err := ValidateStep("contact", Payload{})
	require.NoError(t, err)
	assert.Contains(t, errs, FieldContactName)
	assert.Contains(t, errs, FieldEmail)
}

func TestUnknownStepIsAnError(t *testing.T) {
	_, err := ValidateStep("billing", Payload{})
	assert.Error(t, err)
}

func TestWebsiteStepChecksFormats(t *testing.T) {
	state := validState()
	state.DomainName = "not a domain"
	state.ReferenceURLs = []string{"ftp://example.com"}

	errs, err := ValidateStep("website", Normalize(state))
	require.NoError(t, err)
	assert.Contains(t, errs, FieldDomainName)
	assert.Contains(t, errs, FieldReferenceURLs)
}

func TestWebsiteStepPassesWhenOptionalFieldsAbsent(t *testing.T) {
	errs, err := ValidateStep("website", Payload{})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestScopeStepBudgetIsClosedSet(t *testing.T) {
	errs, err := ValidateStep("scope", Payload{FieldBudgetRange: "a_million"})
	require.NoError(t, err)
	assert.Contains(t, errs[FieldBudgetRange], "offered options")

	errs, err = ValidateStep("scope", Payload{FieldBudgetRange: "2k_5k"})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestFinalSchemaAcceptsBuiltPayload(t *testing.T) {
	final := BuildFinalPayload(Normalize(validState()))
	assert.Empty(t, ValidateFinal(final))
}

func TestFinalSchemaRequiresCollectionsAndConfirmation(t *testing.T) {
	state := validState()
	state.Services = nil
	state.ReferenceURLs = nil
	state.CustomPages = nil
	state.Confirm = nil

	// Raw normalized payload, without the builder's defaults.
	errs := ValidateFinal(Normalize(state))
	assert.Contains(t, errs, FieldServices)
	assert.Contains(t, errs, FieldReferenceURLs)
	assert.Contains(t, errs, FieldCustomPages)
	assert.Contains(t, errs, FieldConfirm)
}

func TestBuildFinalPayloadDefaultsCollections(t *testing.T) {
	state := validState()
	state.Services = nil
	state.ReferenceURLs = nil
	state.CustomPages = nil
	state.Confirm = nil

	final := BuildFinalPayload(Normalize(state))
	assert.Equal(t, []string{}, final[FieldServices])
	assert.Equal(t, []string{}, final[FieldReferenceURLs])
	assert.Equal(t, []map[string]string{}, final[FieldCustomPages])
	assert.Equal(t, true, final[FieldConfirm])
	assert.Empty(t, ValidateFinal(final))
}

func TestFinalSchemaCollectsEarlierStepErrors(t *testing.T) {
	state := validState()
	state.Email = "broken"
	state.BusinessDescription = ""

	errs := ValidateFinal(BuildFinalPayload(Normalize(state)))
	assert.Contains(t, errs, FieldEmail)
	assert.Contains(t, errs, FieldBusinessDescription)
}
