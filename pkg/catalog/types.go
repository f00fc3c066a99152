package catalog

import (
	"errors"
	"slices"
	"strings"
)

// CategoryID names one of the fixed interest categories.
type CategoryID string

const (
	Technical     CategoryID = "technical"
	Soft          CategoryID = "soft"
	Industry      CategoryID = "industry"
	Hobby         CategoryID = "hobby"
	Language      CategoryID = "language"
	Certification CategoryID = "certification"
	Custom        CategoryID = "custom"
)

// CategoryIDs lists every category in catalog order.
var CategoryIDs = []CategoryID{Technical, Soft, Industry, Hobby, Language, Certification, Custom}

var categoryNames = map[CategoryID]string{
	Technical:     "Technical Skills",
	Soft:          "Soft Skills",
	Industry:      "Industry Knowledge",
	Hobby:         "Hobbies & Interests",
	Language:      "Languages",
	Certification: "Certifications",
	Custom:        "Custom",
}

// Valid reports whether id is one of the fixed categories.
func (id CategoryID) Valid() bool {
	_, ok := categoryNames[id]
	return ok
}

// DisplayName is the human readable label for the category.
func (id CategoryID) DisplayName() string {
	return categoryNames[id]
}

var (
	// ErrEmptyName is returned when a custom interest name is blank after trimming.
	ErrEmptyName = errors.New("interest name is empty")
	// ErrUnknownCategory is returned for seed data naming a category outside CategoryIDs.
	ErrUnknownCategory = errors.New("unknown interest category")
)

// InterestItem is a single selectable skill or interest.
type InterestItem struct {
	ID          string     `json:"id" msgpack:"id"`
	Name        string     `json:"name" msgpack:"name"`
	Category    CategoryID `json:"category" msgpack:"category"`
	Subcategory string     `json:"subcategory,omitempty" msgpack:"subcategory,omitempty"`
	Relevance   float64    `json:"relevance" msgpack:"relevance"`
	Tags        []string   `json:"tags,omitempty" msgpack:"tags,omitempty"`
	Skills      []string   `json:"skills,omitempty" msgpack:"skills,omitempty"`
	Description string     `json:"description,omitempty" msgpack:"description,omitempty"`
}

// HasTag reports whether the item carries tag, ignoring case.
func (it InterestItem) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (it InterestItem) clone() InterestItem {
	it.Tags = slices.Clone(it.Tags)
	it.Skills = slices.Clone(it.Skills)
	return it
}

// InterestCategory groups the items of one CategoryID.
type InterestCategory struct {
	ID    CategoryID     `json:"id" msgpack:"id"`
	Name  string         `json:"name" msgpack:"name"`
	Items []InterestItem `json:"items" msgpack:"items"`
}

// CVDocument is the read-only view of a CV used for recommendations and validation.
type CVDocument struct {
	Summary         string   `json:"summary" msgpack:"summary"`
	TechnicalSkills []string `json:"technical_skills" msgpack:"technical_skills"`
	Languages       []string `json:"languages" msgpack:"languages"`
}

// Filter restricts and orders FilterInterests results.
// A nil Category or MinRelevance means "no restriction".
type Filter struct {
	Category     *CategoryID
	Query        string
	Tags         []string
	MinRelevance *float64
}

// CustomMetadata optionally annotates an item created with AddCustomInterest.
type CustomMetadata struct {
	Subcategory string   `json:"subcategory,omitempty" msgpack:"subcategory,omitempty"`
	Description string   `json:"description,omitempty" msgpack:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" msgpack:"tags,omitempty"`
	Relevance   *float64 `json:"relevance,omitempty" msgpack:"relevance,omitempty"`
}

// ValidationResult is the outcome of ValidateInterestsForCV.
type ValidationResult struct {
	Valid    bool     `json:"valid" msgpack:"valid"`
	Errors   []string `json:"errors" msgpack:"errors"`
	Warnings []string `json:"warnings" msgpack:"warnings"`
}
