package enrich

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

// QualityAnalyzer scores an extraction for completeness and plausibility.
// Implementations must treat "unknown" as reserved for failure: a normal
// assessment always lands in excellent/good/poor.
type QualityAnalyzer interface {
	Assess(raw model.RawExtraction) (model.QualityAssessment, error)
}

// HeuristicAnalyzer buckets OCR output with a deterministic composite score:
// critical-field presence dominates, format plausibility of email/phone and
// a professional-looking title make up the rest.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer returns the default quality analyzer.
func NewHeuristicAnalyzer() HeuristicAnalyzer {
	return HeuristicAnalyzer{}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Score weights. Name and company are the critical fields and together carry
// over half the scale.
const (
	scoreName    = 30
	scoreCompany = 25
	scoreEmail   = 15
	scorePhone   = 15
	scoreTitle   = 10
	scoreWebsite = 5
)

// Assess computes the confidence composite and buckets it:
// >=85 with both critical fields is excellent, >=60 with at least one is
// good, anything else is poor.
func (HeuristicAnalyzer) Assess(raw model.RawExtraction) (model.QualityAssessment, error) {
	confidence := 0

	if strings.TrimSpace(raw.Name) != "" {
		confidence += scoreName
	}
	if strings.TrimSpace(raw.Company) != "" {
		confidence += scoreCompany
	}
	if plausibleEmail(raw.Email) {
		confidence += scoreEmail
	}
	if plausiblePhone(raw.Phone) {
		confidence += scorePhone
	}
	if professionalTitle(raw.Title) {
		confidence += scoreTitle
	}
	if strings.TrimSpace(raw.Website) != "" {
		confidence += scoreWebsite
	}

	quality := model.ScanQualityPoor
	switch {
	case confidence >= 85 && raw.HasCriticalFields():
		quality = model.ScanQualityExcellent
	case confidence >= 60 && (raw.Name != "" || raw.Company != ""):
		quality = model.ScanQualityGood
	}

	return model.QualityAssessment{Confidence: confidence, Quality: quality}, nil
}

func plausibleEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// plausiblePhone requires at least seven digits, ignoring separators.
func plausiblePhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 7
}

// professionalTitle filters out empty strings and OCR noise that contains no
// letters at all.
func professionalTitle(title string) bool {
	title = strings.TrimSpace(title)
	if len(title) < 2 {
		return false
	}
	for _, r := range title {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
