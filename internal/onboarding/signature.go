package onboarding

import "encoding/json"

// Signature returns the canonical serialization of a normalized payload.
// encoding/json writes map keys in sorted order, so equal payloads always
// produce byte-identical output. Used only for change detection; never
// persisted on its own.
func Signature(payload Payload) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are maps of strings, bools and string slices; marshal
		// cannot fail for them. Treat a failure as "always changed".
		return ""
	}
	return string(data)
}
