package onboarding

import "strings"

// fieldSpec declares how one payload field is extracted from the raw form
// state. The extract func returns the value and whether it should be
// included at all; the table below is the single source of truth for the
// sparsity rules (no empty strings, no empty collections, no unset
// booleans, dependent fields gated on their governing boolean).
type fieldSpec struct {
	name    string
	extract func(FormState) (any, bool)
}

var fieldSpecs = []fieldSpec{
	{FieldContactName, func(s FormState) (any, bool) { return scalar(s.ContactName) }},
	{FieldCompanyName, func(s FormState) (any, bool) { return scalar(s.CompanyName) }},
	{FieldEmail, func(s FormState) (any, bool) { return scalar(s.Email) }},
	{FieldPhone, func(s FormState) (any, bool) { return scalar(s.Phone) }},
	{FieldBusinessDescription, func(s FormState) (any, bool) { return scalar(s.BusinessDescription) }},
	{FieldServices, func(s FormState) (any, bool) { return stringList(s.Services) }},
	{FieldAudience, func(s FormState) (any, bool) { return scalar(s.Audience) }},
	{FieldDomainOwned, func(s FormState) (any, bool) { return boolean(s.DomainOwned) }},
	{FieldDomainName, func(s FormState) (any, bool) {
		// Dependent field: only meaningful when the client owns a domain.
		if s.DomainOwned == nil || !*s.DomainOwned {
			return nil, false
		}
		return scalar(s.DomainName)
	}},
	{FieldHasBranding, func(s FormState) (any, bool) { return boolean(s.HasBranding) }},
	{FieldReferenceURLs, func(s FormState) (any, bool) { return stringList(s.ReferenceURLs) }},
	{FieldCustomPages, func(s FormState) (any, bool) { return pageList(s.CustomPages) }},
	{FieldBudgetRange, func(s FormState) (any, bool) { return scalar(s.BudgetRange) }},
	{FieldTimeline, func(s FormState) (any, bool) { return scalar(s.Timeline) }},
	{FieldNotes, func(s FormState) (any, bool) { return scalar(s.Notes) }},
	{FieldConfirm, func(s FormState) (any, bool) { return boolean(s.Confirm) }},
}

// Normalize folds the raw form state into the sparse persisted payload.
// Pure and deterministic: identical input always yields an identical
// payload, which is what makes signature comparison sound.
func Normalize(state FormState) Payload {
	payload := make(Payload, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		if value, ok := spec.extract(state); ok {
			payload[spec.name] = value
		}
	}
	return payload
}

func scalar(raw string) (any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	return trimmed, true
}

func boolean(raw *bool) (any, bool) {
	if raw == nil {
		return nil, false
	}
	return *raw, true
}

// stringList trims every entry, drops empties and de-duplicates keeping
// the first occurrence.
func stringList(raw []string) (any, bool) {
	seen := make(map[string]struct{}, len(raw))
	cleaned := make([]string, 0, len(raw))
	for _, entry := range raw {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return nil, false
	}
	return cleaned, true
}

// pageList keeps a record only when its title survives trimming. Records
// are stored as plain maps so the payload round-trips through jsonb
// without a custom type.
func pageList(raw []CustomPage) (any, bool) {
	cleaned := make([]map[string]string, 0, len(raw))
	for _, page := range raw {
		title := strings.TrimSpace(page.Title)
		if title == "" {
			continue
		}
		cleaned = append(cleaned, map[string]string{
			"title":       title,
			"description": strings.TrimSpace(page.Description),
		})
	}
	if len(cleaned) == 0 {
		return nil, false
	}
	return cleaned, true
}

// StateFromPayload rebuilds form state from a persisted payload, used
// when switching to a project to reload its draft as editing defaults.
// Values read back from jsonb arrive as any/[]any, so every accessor
// tolerates both the in-memory and the decoded shape.
func StateFromPayload(payload Payload) FormState {
	state := FormState{
		ContactName:         payloadString(payload, FieldContactName),
		CompanyName:         payloadString(payload, FieldCompanyName),
		Email:               payloadString(payload, FieldEmail),
		Phone:               payloadString(payload, FieldPhone),
		BusinessDescription: payloadString(payload, FieldBusinessDescription),
		Services:            payloadStrings(payload, FieldServices),
		Audience:            payloadString(payload, FieldAudience),
		DomainOwned:         payloadBool(payload, FieldDomainOwned),
		DomainName:          payloadString(payload, FieldDomainName),
		HasBranding:         payloadBool(payload, FieldHasBranding),
		ReferenceURLs:       payloadStrings(payload, FieldReferenceURLs),
		CustomPages:         payloadPages(payload, FieldCustomPages),
		BudgetRange:         payloadString(payload, FieldBudgetRange),
		Timeline:            payloadString(payload, FieldTimeline),
		Notes:               payloadString(payload, FieldNotes),
		Confirm:             payloadBool(payload, FieldConfirm),
	}
	return state
}

func payloadString(payload Payload, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadBool(payload Payload, key string) *bool {
	if v, ok := payload[key].(bool); ok {
		return &v
	}
	return nil
}

func payloadStrings(payload Payload, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func payloadPages(payload Payload, key string) []CustomPage {
	var pages []CustomPage
	switch v := payload[key].(type) {
	case []map[string]string:
		for _, m := range v {
			pages = append(pages, CustomPage{Title: m["title"], Description: m["description"]})
		}
	case []any:
		for _, entry := range v {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			page := CustomPage{}
			if title, ok := m["title"].(string); ok {
				page.Title = title
			}
			if desc, ok := m["description"].(string); ok {
				page.Description = desc
			}
			pages = append(pages, page)
		}
	}
	return pages
}
