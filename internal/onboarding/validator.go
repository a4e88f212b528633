package onboarding

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	domainPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
)

// BudgetRanges is the closed set of accepted budget answers.
var BudgetRanges = []string{"under_2k", "2k_5k", "5k_10k", "10k_plus"}

// Steps is the fixed, ordered questionnaire. Ordinals are contiguous and
// the review step's validate func is the full final schema.
var Steps = []StepDefinition{
	{
		ID:      "contact",
		Ordinal: 0,
		Fields:  []string{FieldContactName, FieldCompanyName, FieldEmail, FieldPhone},
		Validate: func(p Payload) FieldErrors {
			errs := FieldErrors{}
			if payloadString(p, FieldContactName) == "" {
				errs[FieldContactName] = "contact name is required"
			}
			email := payloadString(p, FieldEmail)
			if email == "" {
				errs[FieldEmail] = "email is required"
			} else if !emailPattern.MatchString(email) {
				errs[FieldEmail] = "email address is not valid"
			}
			return errs
		},
	},
	{
		ID:      "business",
		Ordinal: 1,
		Fields:  []string{FieldBusinessDescription, FieldServices, FieldAudience},
		Validate: func(p Payload) FieldErrors {
			errs := FieldErrors{}
			if payloadString(p, FieldBusinessDescription) == "" {
				errs[FieldBusinessDescription] = "tell us what your business does"
			}
			return errs
		},
	},
	{
		ID:      "website",
		Ordinal: 2,
		Fields:  []string{FieldDomainOwned, FieldDomainName, FieldHasBranding, FieldReferenceURLs, FieldCustomPages},
		Validate: func(p Payload) FieldErrors {
			errs := FieldErrors{}
			if domain := payloadString(p, FieldDomainName); domain != "" && !domainPattern.MatchString(domain) {
				errs[FieldDomainName] = "domain name is not valid"
			}
			for _, ref := range payloadStrings(p, FieldReferenceURLs) {
				if !validHTTPURL(ref) {
					errs[FieldReferenceURLs] = fmt.Sprintf("%q is not a valid URL", ref)
					break
				}
			}
			return errs
		},
	},
	{
		ID:      "scope",
		Ordinal: 3,
		Fields:  []string{FieldBudgetRange, FieldTimeline, FieldNotes},
		Validate: func(p Payload) FieldErrors {
			errs := FieldErrors{}
			budget := payloadString(p, FieldBudgetRange)
			if budget == "" {
				errs[FieldBudgetRange] = "budget range is required"
			} else if !validBudgetRange(budget) {
				errs[FieldBudgetRange] = "budget range is not one of the offered options"
			}
			return errs
		},
	},
	{
		ID:      "review",
		Ordinal: 4,
		Fields:  []string{FieldConfirm},
	},
}

// The review step's validate func is assigned in init to break the
// initialization cycle between Steps and ValidateFinal.
func init() {
	Steps[len(Steps)-1].Validate = func(p Payload) FieldErrors {
		// The review step sees the same shape finalization will
		// persist: defaults applied, acknowledgment overlaid.
		return ValidateFinal(BuildFinalPayload(p))
	}
}

// StepByID looks up a step definition. Returns false for unknown ids.
func StepByID(stepID string) (StepDefinition, bool) {
	for _, step := range Steps {
		if step.ID == stepID {
			return step, true
		}
	}
	return StepDefinition{}, false
}

// ValidateStep runs one step's schema against a normalized payload and
// returns a field -> first-error map. Empty map means the step passes.
// Pure: never touches persisted state.
func ValidateStep(stepID string, payload Payload) (FieldErrors, error) {
	step, ok := StepByID(stepID)
	if !ok {
		return nil, fmt.Errorf("unknown onboarding step %q", stepID)
	}
	return step.Validate(payload), nil
}

// ValidateFinal is the superset schema the review step and finalization
// run: every earlier step's rules, well-typed required collections and
// the explicit confirmation.
func ValidateFinal(payload Payload) FieldErrors {
	errs := FieldErrors{}
	for _, step := range Steps[:len(Steps)-1] {
		for field, msg := range step.Validate(payload) {
			if _, taken := errs[field]; !taken {
				errs[field] = msg
			}
		}
	}
	for _, field := range []string{FieldServices, FieldReferenceURLs, FieldCustomPages} {
		if _, present := payload[field]; !present {
			errs[field] = "required collection is missing"
		}
	}
	if confirmed, ok := payload[FieldConfirm].(bool); !ok || !confirmed {
		errs[FieldConfirm] = "please confirm the summary before submitting"
	}
	return errs
}

func validHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func validBudgetRange(budget string) bool {
	for _, allowed := range BudgetRanges {
		if strings.EqualFold(budget, allowed) {
			return true
		}
	}
	return false
}
