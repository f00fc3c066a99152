package catalog

import (
	"strings"

	"github.com/bastiangx/cvsuggest/internal/utils"
)

// DefaultRecommendLimit applies when RecommendInterests is called with limit <= 0.
const DefaultRecommendLimit = 10

const (
	overlapBoost  = 0.5
	tagBoost      = 0.25
	relevanceBase = 0.25
)

// summaryHints maps word stems found in a CV summary to the tag they suggest.
var summaryHints = []struct {
	stems []string
	tag   string
}{
	{[]string{"lead", "manag", "head of", "supervis"}, "leadership"},
	{[]string{"mentor", "coach"}, "leadership"},
	{[]string{"cloud", "aws", "azure", "gcp", "serverless"}, "cloud"},
	{[]string{"data", "analyt", "statistic", "sql"}, "data"},
	{[]string{"machine learning", "ai ", "artificial intelligence", "model"}, "ai"},
	{[]string{"frontend", "front-end", "ui ", "react", "web"}, "frontend"},
	{[]string{"backend", "back-end", "api", "microservice"}, "backend"},
	{[]string{"devops", "infrastructure", "ci/cd", "deploy"}, "devops"},
	{[]string{"design", "ux"}, "design"},
	{[]string{"secur"}, "security"},
	{[]string{"market", "brand", "seo"}, "marketing"},
	{[]string{"financ", "bank", "payment"}, "finance"},
	{[]string{"health", "clinic", "medic"}, "health"},
	{[]string{"teach", "educat", "train"}, "education"},
	{[]string{"present", "communicat", "writ"}, "communication"},
	{[]string{"agile", "scrum"}, "agile"},
}

// RecommendInterests suggests catalog items that fit cv.
//
// Items whose name overlaps a declared technical skill or language are boosted, as
// are items whose tags match coarse keyword hints from the summary. Items with no
// boost are left out, as are items the CV already lists verbatim. This is
// best-effort personalization, ordered by boost plus a small relevance term.
func RecommendInterests(cv CVDocument, c *Catalog, limit int) []InterestItem {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}

	declared := append(append([]string{}, cv.TechnicalSkills...), cv.Languages...)
	already := utils.NewNameFilter(declared...)

	summary := " " + strings.ToLower(cv.Summary) + " "
	hinted := make(map[string]bool)
	for _, h := range summaryHints {
		for _, stem := range h.stems {
			if strings.Contains(summary, stem) {
				hinted[h.tag] = true
				break
			}
		}
	}

	var kept []scored
	for _, it := range c.Items() {
		if already.Seen(it.Name) {
			continue
		}
		boost := 0.0
		if overlapsAny(it, declared) {
			boost += overlapBoost
		}
		for _, tag := range it.Tags {
			if hinted[tag] {
				boost += tagBoost
			}
		}
		if boost == 0 {
			continue
		}
		kept = append(kept, scored{item: it, score: boost + relevanceBase*it.Relevance})
	}
	return sortScored(kept, limit)
}

// overlapsAny reports whether the item is related to one of the declared names:
// either name contains the other as whole words, or the item lists it as a skill.
func overlapsAny(it InterestItem, declared []string) bool {
	for _, d := range declared {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if utils.ContainsWord(it.Name, d) || utils.ContainsWord(d, it.Name) {
			return true
		}
		for _, s := range it.Skills {
			if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(d)) {
				return true
			}
		}
	}
	return false
}
