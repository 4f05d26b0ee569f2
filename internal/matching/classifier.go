package matching

import (
	"strings"

	"github.com/carefinder/backend/internal/domain/entities"
)

// Classifier derives a facility type from a candidate's raw name and provider
// category tags, and decides whether the candidate is a medical facility
// worth showing at all. Name keywords always win over category tags; upstream
// categorization is unreliable for this domain.
type Classifier struct {
	tables *Tables
}

// NewClassifier creates a classifier over the given matching tables.
func NewClassifier(tables *Tables) *Classifier {
	return &Classifier{tables: tables}
}

// ClassifyFacilityType maps a candidate to emergency, urgent_care or clinic.
func (c *Classifier) ClassifyFacilityType(rawName string, categoryTags []string, primaryTag string) entities.FacilityType {
	nameLower := strings.ToLower(rawName)

	if containsAnyKeyword(nameLower, c.tables.TypeKeywords["emergency"]) {
		return entities.FacilityTypeEmergency
	}
	if containsAnyKeyword(nameLower, c.tables.TypeKeywords["urgent_care"]) {
		return entities.FacilityTypeUrgentCare
	}
	if containsAnyKeyword(nameLower, c.tables.TypeKeywords["clinic"]) {
		return entities.FacilityTypeClinic
	}

	if containsString(c.tables.TypeCategories["emergency"], primaryTag) {
		return entities.FacilityTypeEmergency
	}
	if containsAnyString(categoryTags, c.tables.TypeCategories["emergency"]) {
		return entities.FacilityTypeEmergency
	}
	if containsAnyString(categoryTags, c.tables.TypeCategories["urgent_care"]) {
		return entities.FacilityTypeUrgentCare
	}

	return entities.FacilityTypeClinic
}

// IsRelevantFacility filters out specialty practices that are not useful for
// emergency or urgent care routing. The filter is closed-world: a candidate
// matching neither the exclude nor the include lists is rejected.
func (c *Classifier) IsRelevantFacility(rawName string, categoryTags []string, primaryTag string) bool {
	nameLower := strings.ToLower(rawName)

	if containsAnyKeyword(nameLower, c.tables.Relevance.ExcludeKeywords) {
		return false
	}
	if containsAnyString(categoryTags, c.tables.Relevance.ExcludeCategories) {
		return false
	}

	if containsString(categoryTags, "hospital") {
		return true
	}
	if containsAnyKeyword(nameLower, c.tables.Relevance.IncludeKeywords) {
		return true
	}
	if containsString(c.tables.Relevance.IncludeCategories, primaryTag) {
		return true
	}

	return false
}

func containsAnyKeyword(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

func containsAnyString(values []string, targets []string) bool {
	for _, target := range targets {
		if containsString(values, target) {
			return true
		}
	}
	return false
}
