package catalog

import (
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/cvsuggest/internal/utils"
)

const (
	// MaxInterestNameLength is the longest name, in characters, a CV may carry.
	MaxInterestNameLength = 120
	// LowRelevanceThreshold marks selections worth a warning.
	LowRelevanceThreshold = 0.2
)

// ValidateInterestsForCV checks a CV's selected interests.
// Repeated names (ignoring case) and overlong names are errors; items with a
// static relevance below LowRelevanceThreshold, or already listed among the CV's
// skills or languages, only produce warnings.
func ValidateInterestsForCV(cv CVDocument, selected []InterestItem) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}
	names := utils.NewNameFilter()
	declared := utils.NewNameFilter(append(append([]string{}, cv.TechnicalSkills...), cv.Languages...)...)

	for _, it := range selected {
		if !names.ShouldInclude(it.Name) {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate interest %q", it.Name))
		}
		if n := utf8.RuneCountInString(it.Name); n > MaxInterestNameLength {
			res.Errors = append(res.Errors,
				fmt.Sprintf("interest name %.20q... is %d characters, maximum is %d", it.Name, n, MaxInterestNameLength))
		}
		if it.Relevance < LowRelevanceThreshold {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("interest %q has low relevance (%.2f)", it.Name, it.Relevance))
		}
		if declared.Seen(it.Name) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("interest %q is already listed on the CV", it.Name))
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}
