package model

import (
	"strings"
)

// Unknown is the sentinel used for any assessment field the analysis
// capability did not supply.
const Unknown = "Unknown"

// InterestLevel is the candidate's apparent interest in the role.
type InterestLevel string

// Interest levels.
const (
	InterestLow     InterestLevel = "Low"
	InterestMedium  InterestLevel = "Medium"
	InterestHigh    InterestLevel = "High"
	InterestUnknown InterestLevel = Unknown
)

// Readiness is how ready the candidate is for the role.
type Readiness string

// Readiness levels.
const (
	ReadinessNotReady  Readiness = "NotReady"
	ReadinessSomewhat  Readiness = "Somewhat"
	ReadinessReady     Readiness = "Ready"
	ReadinessVeryReady Readiness = "VeryReady"
	ReadinessUnknown   Readiness = Unknown
)

// ExperienceLevel is the candidate's seniority.
type ExperienceLevel string

// Experience levels.
const (
	ExperienceJunior  ExperienceLevel = "Junior"
	ExperienceMid     ExperienceLevel = "Mid"
	ExperienceSenior  ExperienceLevel = "Senior"
	ExperienceUnknown ExperienceLevel = Unknown
)

// AnalysisResult is the structured assessment derived from a transcript.
// After normalization no field is empty: strings and enums hold Unknown,
// lists hold an empty slice.
type AnalysisResult struct {
	CandidateName       string          `json:"candidate_name"`
	InterestLevel       InterestLevel   `json:"interest_level"`
	Readiness           Readiness       `json:"readiness"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
	TechnicalSkills     []string        `json:"technical_skills"`
	SoftSkills          []string        `json:"soft_skills"`
	KeyStrengths        string          `json:"key_strengths"`
	AreasForImprovement string          `json:"areas_for_improvement"`
	OverallAssessment   string          `json:"overall_assessment"`
	NotableQuotes       []string        `json:"notable_quotes"`
}

// normalizeKey lowercases s and drops everything but letters.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseInterestLevel maps provider spellings onto InterestLevel.
func ParseInterestLevel(s string) InterestLevel {
	switch normalizeKey(s) {
	case "low":
		return InterestLow
	case "medium", "moderate":
		return InterestMedium
	case "high":
		return InterestHigh
	}
	return InterestUnknown
}

// ParseReadiness maps provider spellings ("Not Ready", "Somewhat Ready", ...)
// onto Readiness.
func ParseReadiness(s string) Readiness {
	switch normalizeKey(s) {
	case "notready":
		return ReadinessNotReady
	case "somewhat", "somewhatready":
		return ReadinessSomewhat
	case "ready":
		return ReadinessReady
	case "veryready":
		return ReadinessVeryReady
	}
	return ReadinessUnknown
}

// ParseExperienceLevel maps provider spellings ("Mid-level", ...) onto
// ExperienceLevel.
func ParseExperienceLevel(s string) ExperienceLevel {
	switch normalizeKey(s) {
	case "junior", "entry", "entrylevel":
		return ExperienceJunior
	case "mid", "midlevel", "intermediate":
		return ExperienceMid
	case "senior", "seniorlevel":
		return ExperienceSenior
	}
	return ExperienceUnknown
}
