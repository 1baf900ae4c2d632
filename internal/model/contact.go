// Package model defines the contact data model shared across the scan
// pipeline, the store, and the analytics layer.
package model

import "time"

// ScanQuality buckets OCR extraction reliability.
type ScanQuality string

const (
	ScanQualityExcellent ScanQuality = "excellent"
	ScanQualityGood      ScanQuality = "good"
	ScanQualityPoor      ScanQuality = "poor"
	// ScanQualityUnknown is reserved for analyzer failure, not a normal tier.
	ScanQualityUnknown ScanQuality = "unknown"
)

// CompanySize is a coarse headcount bucket.
type CompanySize string

const (
	CompanySizeStartup    CompanySize = "startup"
	CompanySizeSmall      CompanySize = "small"
	CompanySizeMedium     CompanySize = "medium"
	CompanySizeLarge      CompanySize = "large"
	CompanySizeEnterprise CompanySize = "enterprise"
	CompanySizeUnknown    CompanySize = "unknown"
)

// AllCompanySizes returns every valid company size, smallest first.
func AllCompanySizes() []CompanySize {
	return []CompanySize{
		CompanySizeStartup,
		CompanySizeSmall,
		CompanySizeMedium,
		CompanySizeLarge,
		CompanySizeEnterprise,
		CompanySizeUnknown,
	}
}

// ContactCategory classifies the relationship with a contact.
type ContactCategory string

const (
	CategoryLead       ContactCategory = "lead"
	CategoryPartner    ContactCategory = "partner"
	CategoryInvestor   ContactCategory = "investor"
	CategoryClient     ContactCategory = "client"
	CategoryVendor     ContactCategory = "vendor"
	CategoryProspect   ContactCategory = "prospect"
	CategoryInfluencer ContactCategory = "influencer"
	CategoryOther      ContactCategory = "other"
)

// AllCategories returns every valid contact category.
func AllCategories() []ContactCategory {
	return []ContactCategory{
		CategoryLead,
		CategoryPartner,
		CategoryInvestor,
		CategoryClient,
		CategoryVendor,
		CategoryProspect,
		CategoryInfluencer,
		CategoryOther,
	}
}

// ValidCompanySize reports whether s is a known company size bucket.
func ValidCompanySize(s CompanySize) bool {
	for _, v := range AllCompanySizes() {
		if v == s {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is a known contact category.
func ValidCategory(c ContactCategory) bool {
	for _, v := range AllCategories() {
		if v == c {
			return true
		}
	}
	return false
}

// RawExtraction holds the fields read off a business card by the vision
// model. Every field is optional; the extractor may return nonsense for any
// of them and downstream code must tolerate it.
type RawExtraction struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// HasCriticalFields reports whether both name and company were extracted.
// Enrichment only runs when both are present.
func (r RawExtraction) HasCriticalFields() bool {
	return r.Name != "" && r.Company != ""
}

// QualityAssessment scores an extraction for completeness and plausibility.
type QualityAssessment struct {
	Confidence int         `json:"confidence"` // 0-100
	Quality    ScanQuality `json:"quality"`
}

// Location is a structured postal address. Address always carries the raw
// string from the card, even when the structured parse failed.
type Location struct {
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Address    string `json:"address"`
}

// Contact is the persisted entity produced by a scan. The pipeline returns
// a draft (ID and CreatedAt/UpdatedAt zero); the store assigns those and
// owns all mutation after insert.
//
// Invariant: Category, CompanySize, PriorityScore, Tags, IsCompetitor,
// OCRConfidence and ScanQuality are always set, even on total enrichment
// failure. The orchestrator's fallback path guarantees the defaults.
type Contact struct {
	ID string `json:"id"`

	RawExtraction

	Notes string `json:"notes,omitempty"`

	ImageURI      string    `json:"image_uri"`
	CardImageURI  string    `json:"card_image_uri"`
	ScanTimestamp time.Time `json:"scan_timestamp"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	PersonSummary        string          `json:"person_summary,omitempty"`
	CompanySummary       string          `json:"company_summary,omitempty"`
	LinkedInURL          string          `json:"linkedin_url,omitempty"`
	Industry             string          `json:"industry,omitempty"`
	CompanySize          CompanySize     `json:"company_size"`
	Category             ContactCategory `json:"category"`
	Tags                 []string        `json:"tags"`
	PriorityScore        int             `json:"priority_score"`
	IsCompetitor         bool            `json:"is_competitor"`
	Location             *Location       `json:"location,omitempty"`
	ConversationStarters []string        `json:"conversation_starters,omitempty"`

	OCRConfidence int         `json:"ocr_confidence"`
	ScanQuality   ScanQuality `json:"scan_quality"`
}

// ApplyDefaults fills the invariant fields a persisted contact must carry.
// Quality fields are left alone; callers set those per failure branch.
func (c *Contact) ApplyDefaults() {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Category == "" {
		c.Category = CategoryOther
	}
	if c.CompanySize == "" {
		c.CompanySize = CompanySizeUnknown
	}
	if c.ScanQuality == "" {
		c.ScanQuality = ScanQualityUnknown
	}
}

// HasTag reports whether the contact carries tag (exact match).
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
