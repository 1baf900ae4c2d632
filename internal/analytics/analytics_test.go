package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

var now = time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)

func contactAt(ts time.Time) model.Contact {
	return model.Contact{ScanTimestamp: ts, CreatedAt: ts}
}

func TestGetNetworkMetrics(t *testing.T) {
	c1 := contactAt(now.Add(-2 * 24 * time.Hour)) // this week
	c1.Company = "Acme Corp"
	c1.Industry = "Technology"
	c1.PriorityScore = 80
	c1.CompanySize = model.CompanySizeEnterprise
	c1.IsCompetitor = true

	c2 := contactAt(now.Add(-10 * 24 * time.Hour)) // this month only
	c2.Company = "Globex LLC"
	c2.Industry = "Finance"
	c2.PriorityScore = 40
	c2.CompanySize = model.CompanySizeSmall

	c3 := contactAt(now.Add(-60 * 24 * time.Hour)) // older
	c3.Company = "Acme Corp"
	c3.Industry = "Technology"
	c3.CompanySize = model.CompanySizeUnknown

	m := GetNetworkMetrics([]model.Contact{c1, c2, c3}, now)

	assert.Equal(t, 3, m.TotalContacts)
	assert.Equal(t, 1, m.ThisWeek)
	assert.Equal(t, 2, m.ThisMonth)
	assert.Equal(t, 2, m.UniqueIndustries)
	assert.Equal(t, 2, m.UniqueCompanies)
	assert.Equal(t, 1, m.CompetitorCount)
	assert.Equal(t, 1, m.HighPriorityCount)
	// (80+40+0)/3 rounded
	assert.Equal(t, 40, m.AveragePriorityScore)
	// 2 contacts in the last 4 weeks, averaged per week and rounded
	assert.Equal(t, 1, m.NetworkingVelocity)
	// c1: 80*0.5+50+5 = 95, c2: 40*0.5+10 = 30, c3: 50*0.5+0 = 25
	assert.Equal(t, 150, m.NetworkValueScore)
}

func TestGetNetworkMetricsEmpty(t *testing.T) {
	m := GetNetworkMetrics(nil, now)
	assert.Equal(t, 0, m.TotalContacts)
	assert.Equal(t, 0, m.AveragePriorityScore)
	assert.Equal(t, 0, m.NetworkValueScore)
}

func TestGetNetworkMetricsValueCapped(t *testing.T) {
	contacts := make([]model.Contact, 30)
	for i := range contacts {
		contacts[i] = contactAt(now)
		contacts[i].PriorityScore = 100
		contacts[i].CompanySize = model.CompanySizeEnterprise
	}
	// 30 * (50 + 50) = 3000, capped.
	m := GetNetworkMetrics(contacts, now)
	assert.Equal(t, 1000, m.NetworkValueScore)
}

func TestGetWeeklyTrends(t *testing.T) {
	contacts := []model.Contact{
		contactAt(now),
		contactAt(now),
		contactAt(now.Add(-3 * 24 * time.Hour)),
		contactAt(now.Add(-30 * 24 * time.Hour)), // outside window
	}

	trends := GetWeeklyTrends(contacts, now)
	require.Len(t, trends, 7)

	// Oldest day first, today last.
	assert.Equal(t, now.AddDate(0, 0, -6).Format("2006-01-02"), trends[0].Date)
	assert.Equal(t, now.Format("2006-01-02"), trends[6].Date)
	assert.Equal(t, 2, trends[6].Count)
	assert.Equal(t, 1, trends[3].Count)
	assert.Equal(t, 0, trends[0].Count)
}

func TestGetIndustryBreakdown(t *testing.T) {
	tech1 := contactAt(now)
	tech1.Industry = "Technology"
	tech2 := contactAt(now)
	tech2.Industry = "Technology"
	finance := contactAt(now)
	finance.Industry = "Finance"
	blank := contactAt(now)

	breakdown := GetIndustryBreakdown([]model.Contact{tech1, tech2, finance, blank})
	require.Len(t, breakdown, 3)

	assert.Equal(t, "Technology", breakdown[0].Name)
	assert.Equal(t, 2, breakdown[0].Count)
	assert.Equal(t, 50, breakdown[0].Percentage)
	assert.Equal(t, "Finance", breakdown[1].Name)
	assert.Equal(t, "Unknown", breakdown[2].Name)
}

func TestGetCompanySizeBreakdown(t *testing.T) {
	large := contactAt(now)
	large.CompanySize = model.CompanySizeLarge
	startup1 := contactAt(now)
	startup1.CompanySize = model.CompanySizeStartup
	startup2 := contactAt(now)
	startup2.CompanySize = model.CompanySizeStartup

	breakdown := GetCompanySizeBreakdown([]model.Contact{large, startup1, startup2})
	require.Len(t, breakdown, 2)

	// Canonical size order, not count order.
	assert.Equal(t, model.CompanySizeStartup, breakdown[0].Size)
	assert.Equal(t, 2, breakdown[0].Count)
	assert.Equal(t, "Startup", breakdown[0].Label)
	assert.Equal(t, model.CompanySizeLarge, breakdown[1].Size)
	assert.Equal(t, "Large (1K-10K)", breakdown[1].Label)
}

func TestGetGeographicDistribution(t *testing.T) {
	sf1 := contactAt(now)
	sf1.Location = &model.Location{City: "San Francisco", Country: "USA"}
	sf2 := contactAt(now)
	sf2.Location = &model.Location{City: "San Francisco", Country: "USA"}
	berlin := contactAt(now)
	berlin.Location = &model.Location{City: "Berlin", Country: "Germany"}
	cityOnly := contactAt(now)
	cityOnly.Location = &model.Location{City: "Springfield"}
	noLocation := contactAt(now)
	addressOnly := contactAt(now)
	addressOnly.Location = &model.Location{Address: "123 Main St"}

	distribution := GetGeographicDistribution([]model.Contact{
		sf1, sf2, berlin, cityOnly, noLocation, addressOnly,
	})
	require.Len(t, distribution, 3)

	assert.Equal(t, GeographicData{Country: "USA", City: "San Francisco", Count: 2}, distribution[0])
	// Ties break on country, then city.
	assert.Equal(t, GeographicData{Country: "Germany", City: "Berlin", Count: 1}, distribution[1])
	assert.Equal(t, GeographicData{Country: "Unknown", City: "Springfield", Count: 1}, distribution[2])
}

func TestGetTopCompanies(t *testing.T) {
	var contacts []model.Contact
	for i := 0; i < 3; i++ {
		c := contactAt(now)
		c.Company = "Acme Corp"
		c.Industry = "Technology"
		contacts = append(contacts, c)
	}
	solo := contactAt(now)
	solo.Company = "Globex LLC"
	contacts = append(contacts, solo, contactAt(now)) // one with no company

	top := GetTopCompanies(contacts, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "Acme Corp", top[0].Name)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "Technology", top[0].Industry)

	limited := GetTopCompanies(contacts, 1)
	assert.Len(t, limited, 1)
}

func TestGetContactsByCategory(t *testing.T) {
	lead := contactAt(now)
	lead.Category = model.CategoryLead
	blank := contactAt(now)

	counts := GetContactsByCategory([]model.Contact{lead, blank})
	assert.Equal(t, 1, counts[model.CategoryLead])
	assert.Equal(t, 1, counts[model.CategoryOther])
}

func TestGetQualityReport(t *testing.T) {
	excellent := contactAt(now)
	excellent.ScanQuality = model.ScanQualityExcellent
	poor := contactAt(now)
	poor.ScanQuality = model.ScanQualityPoor
	blank := contactAt(now)

	report := GetQualityReport([]model.Contact{excellent, poor, blank})
	assert.Equal(t, 1, report.Excellent)
	assert.Equal(t, 0, report.Good)
	assert.Equal(t, 1, report.Poor)
	assert.Equal(t, 1, report.Unknown)
}
