// Package analytics computes aggregate reports over a contact collection:
// network metrics, industry and company-size breakdowns, weekly scan trends,
// and scan-quality summaries.
package analytics

import (
	"sort"
	"time"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

// WeeklyTrend is one day's scan count within the trailing week.
type WeeklyTrend struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// IndustryData is one industry's share of the network.
type IndustryData struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// CompanySizeData is one size bucket's count with a display label.
type CompanySizeData struct {
	Size  model.CompanySize `json:"size"`
	Count int               `json:"count"`
	Label string            `json:"label"`
}

// NetworkMetrics summarizes the state of the whole network.
type NetworkMetrics struct {
	TotalContacts        int `json:"total_contacts"`
	ThisWeek             int `json:"this_week"`
	ThisMonth            int `json:"this_month"`
	NetworkingVelocity   int `json:"networking_velocity"` // contacts per week over the last 4 weeks
	UniqueIndustries     int `json:"unique_industries"`
	UniqueCompanies      int `json:"unique_companies"`
	CompetitorCount      int `json:"competitor_count"`
	HighPriorityCount    int `json:"high_priority_count"`
	NetworkValueScore    int `json:"network_value_score"`
	AveragePriorityScore int `json:"average_priority_score"`
}

// TopCompany is a company ranked by how many of its people are in the network.
type TopCompany struct {
	Name     string            `json:"name"`
	Count    int               `json:"count"`
	Industry string            `json:"industry,omitempty"`
	Size     model.CompanySize `json:"size,omitempty"`
}

// GeographicData is one country/city pair's contact count.
type GeographicData struct {
	Country string `json:"country"`
	City    string `json:"city,omitempty"`
	Count   int    `json:"count"`
}

// QualityReport counts contacts per scan-quality bucket.
type QualityReport struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Poor      int `json:"poor"`
	Unknown   int `json:"unknown"`
}

// highPriorityThreshold marks a contact as high priority.
const highPriorityThreshold = 70

// networkValueCap bounds the network value score.
const networkValueCap = 1000

var companySizeLabels = map[model.CompanySize]string{
	model.CompanySizeStartup:    "Startup",
	model.CompanySizeSmall:      "Small (50-200)",
	model.CompanySizeMedium:     "Medium (200-1K)",
	model.CompanySizeLarge:      "Large (1K-10K)",
	model.CompanySizeEnterprise: "Enterprise (10K+)",
	model.CompanySizeUnknown:    "Unknown",
}

// sizeBonuses feed the network value score: bigger companies contribute more.
var sizeBonuses = map[model.CompanySize]int{
	model.CompanySizeStartup:    5,
	model.CompanySizeSmall:      10,
	model.CompanySizeMedium:     20,
	model.CompanySizeLarge:      30,
	model.CompanySizeEnterprise: 50,
	model.CompanySizeUnknown:    0,
}

// scannedAt prefers the scan timestamp, falling back to creation time.
func scannedAt(c *model.Contact) time.Time {
	if !c.ScanTimestamp.IsZero() {
		return c.ScanTimestamp
	}
	return c.CreatedAt
}

// GetNetworkMetrics computes the summary metrics as of now.
func GetNetworkMetrics(contacts []model.Contact, now time.Time) NetworkMetrics {
	const week = 7 * 24 * time.Hour
	const month = 30 * 24 * time.Hour

	m := NetworkMetrics{TotalContacts: len(contacts)}

	industries := make(map[string]bool)
	companies := make(map[string]bool)
	totalPriority := 0
	value := 0.0

	for i := range contacts {
		c := &contacts[i]
		ts := scannedAt(c)

		if ts.After(now.Add(-week)) {
			m.ThisWeek++
		}
		if ts.After(now.Add(-month)) {
			m.ThisMonth++
		}
		if c.Industry != "" {
			industries[c.Industry] = true
		}
		if c.Company != "" {
			companies[c.Company] = true
		}
		if c.IsCompetitor {
			m.CompetitorCount++
			value += 5
		}
		if c.PriorityScore >= highPriorityThreshold {
			m.HighPriorityCount++
		}
		totalPriority += c.PriorityScore

		score := c.PriorityScore
		if score == 0 {
			score = 50
		}
		value += float64(score) * 0.5
		value += float64(sizeBonuses[c.CompanySize])
	}

	m.UniqueIndustries = len(industries)
	m.UniqueCompanies = len(companies)

	if len(contacts) > 0 {
		m.AveragePriorityScore = roundDiv(totalPriority, len(contacts))
	}

	// Velocity: average contacts per week over the trailing four weeks.
	recent := 0
	for i := range contacts {
		ts := scannedAt(&contacts[i])
		if ts.After(now.Add(-4*week)) && !ts.After(now) {
			recent++
		}
	}
	m.NetworkingVelocity = roundDiv(recent, 4)

	m.NetworkValueScore = int(value + 0.5)
	if m.NetworkValueScore > networkValueCap {
		m.NetworkValueScore = networkValueCap
	}
	return m
}

// GetWeeklyTrends returns per-day scan counts for the last seven days,
// oldest first.
func GetWeeklyTrends(contacts []model.Contact, now time.Time) []WeeklyTrend {
	trends := make([]WeeklyTrend, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dateStr := day.Format("2006-01-02")

		count := 0
		for j := range contacts {
			if scannedAt(&contacts[j]).Format("2006-01-02") == dateStr {
				count++
			}
		}
		trends = append(trends, WeeklyTrend{
			Day:   day.Format("Mon"),
			Date:  dateStr,
			Count: count,
		})
	}
	return trends
}

// GetIndustryBreakdown returns industries by descending count with rounded
// percentages. Contacts without an industry count as "Unknown".
func GetIndustryBreakdown(contacts []model.Contact) []IndustryData {
	counts := make(map[string]int)
	for i := range contacts {
		industry := contacts[i].Industry
		if industry == "" {
			industry = "Unknown"
		}
		counts[industry]++
	}

	total := len(contacts)
	if total == 0 {
		total = 1
	}

	breakdown := make([]IndustryData, 0, len(counts))
	for name, count := range counts {
		breakdown = append(breakdown, IndustryData{
			Name:       name,
			Count:      count,
			Percentage: roundDiv(count*100, total),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return breakdown[i].Name < breakdown[j].Name
	})
	return breakdown
}

// GetGeographicDistribution groups contacts by country and city, most
// populous first. Contacts without a country or city are excluded; a contact
// with only a city falls under country "Unknown".
func GetGeographicDistribution(contacts []model.Contact) []GeographicData {
	type geoKey struct {
		country string
		city    string
	}
	counts := make(map[geoKey]int)
	for i := range contacts {
		loc := contacts[i].Location
		if loc == nil || (loc.Country == "" && loc.City == "") {
			continue
		}
		country := loc.Country
		if country == "" {
			country = "Unknown"
		}
		counts[geoKey{country: country, city: loc.City}]++
	}

	distribution := make([]GeographicData, 0, len(counts))
	for key, count := range counts {
		distribution = append(distribution, GeographicData{
			Country: key.country,
			City:    key.city,
			Count:   count,
		})
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		if distribution[i].Country != distribution[j].Country {
			return distribution[i].Country < distribution[j].Country
		}
		return distribution[i].City < distribution[j].City
	})
	return distribution
}

// GetCompanySizeBreakdown returns non-empty size buckets in canonical order.
func GetCompanySizeBreakdown(contacts []model.Contact) []CompanySizeData {
	counts := make(map[model.CompanySize]int)
	for i := range contacts {
		size := contacts[i].CompanySize
		if size == "" {
			size = model.CompanySizeUnknown
		}
		counts[size]++
	}

	breakdown := make([]CompanySizeData, 0, len(counts))
	for _, size := range model.AllCompanySizes() {
		if counts[size] == 0 {
			continue
		}
		breakdown = append(breakdown, CompanySizeData{
			Size:  size,
			Count: counts[size],
			Label: companySizeLabels[size],
		})
	}
	return breakdown
}

// GetTopCompanies ranks companies by contact count, descending.
func GetTopCompanies(contacts []model.Contact, limit int) []TopCompany {
	if limit <= 0 {
		limit = 10
	}

	byName := make(map[string]*TopCompany)
	for i := range contacts {
		c := &contacts[i]
		if c.Company == "" {
			continue
		}
		entry, ok := byName[c.Company]
		if !ok {
			entry = &TopCompany{Name: c.Company}
			byName[c.Company] = entry
		}
		entry.Count++
		entry.Industry = c.Industry
		entry.Size = c.CompanySize
	}

	top := make([]TopCompany, 0, len(byName))
	for _, entry := range byName {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// GetContactsByCategory counts contacts per relationship category.
func GetContactsByCategory(contacts []model.Contact) map[model.ContactCategory]int {
	counts := make(map[model.ContactCategory]int)
	for i := range contacts {
		category := contacts[i].Category
		if category == "" {
			category = model.CategoryOther
		}
		counts[category]++
	}
	return counts
}

// GetQualityReport buckets contacts by scan quality.
func GetQualityReport(contacts []model.Contact) QualityReport {
	var report QualityReport
	for i := range contacts {
		switch contacts[i].ScanQuality {
		case model.ScanQualityExcellent:
			report.Excellent++
		case model.ScanQualityGood:
			report.Good++
		case model.ScanQualityPoor:
			report.Poor++
		default:
			report.Unknown++
		}
	}
	return report
}

// roundDiv divides with rounding to nearest.
func roundDiv(n, d int) int {
	return (n + d/2) / d
}
