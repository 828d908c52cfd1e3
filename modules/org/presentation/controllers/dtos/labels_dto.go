package dtos

import (
	"net/url"
	"unicode/utf8"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

// LabelsDTO maps label slots to their new values. Slots left out keep
// their value and blank slots fall back to the default.
type LabelsDTO map[string]string

// LabelsFromForm picks the known label slots out of submitted form values.
func LabelsFromForm(values url.Values) LabelsDTO {
	dto := LabelsDTO{}
	for _, key := range labels.Keys() {
		if _, ok := values[key]; ok {
			dto[key] = values.Get(key)
		}
	}
	return dto
}

func (dto LabelsDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	for key, value := range dto {
		if !labels.IsKnown(key) {
			errorMessages[key] = key + " is not a label"
			continue
		}
		if utf8.RuneCountInString(value) > labels.MaxLength {
			errorMessages[key] = key + " must be at most 255 characters"
		}
	}
	return errorMessages, len(errorMessages) == 0
}
