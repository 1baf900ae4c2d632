package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardfolio/cardscan-cli/internal/config"
	"github.com/cardfolio/cardscan-cli/internal/enrich"
	"github.com/cardfolio/cardscan-cli/internal/model"
)

func newCaptureCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestDefaultedOps(t *testing.T) {
	outcome := &enrich.ScanOutcome{
		Ops: []enrich.OpResult{
			{Name: "classifyIndustry", Status: enrich.OpOK},
			{Name: "scorePriority", Status: enrich.OpDefaulted},
			{Name: "checkCompetitor", Status: enrich.OpSkipped},
			{Name: "summarizeCompany", Status: enrich.OpDefaulted},
		},
	}

	assert.Equal(t, []string{"scorePriority", "summarizeCompany"}, defaultedOps(outcome))
}

func TestDefaultedOps_NoneDefaulted(t *testing.T) {
	outcome := &enrich.ScanOutcome{
		Ops: []enrich.OpResult{{Name: "classifyIndustry", Status: enrich.OpOK}},
	}
	assert.Empty(t, defaultedOps(outcome))
}

func TestUserIndustry_FlagWins(t *testing.T) {
	cfg = &config.Config{}
	cfg.Pipeline.UserIndustry = "Finance"

	scanUserIndustry = "Technology"
	defer func() { scanUserIndustry = "" }()

	assert.Equal(t, "Technology", userIndustry())
}

func TestUserIndustry_ConfigFallback(t *testing.T) {
	cfg = &config.Config{}
	cfg.Pipeline.UserIndustry = "Finance"

	scanUserIndustry = ""
	assert.Equal(t, "Finance", userIndustry())
}

func TestPrintContact(t *testing.T) {
	cmd, buf := newCaptureCmd()

	printContact(cmd, &model.Contact{
		RawExtraction: model.RawExtraction{
			Name:    "Jane Doe",
			Title:   "VP of Sales",
			Company: "Acme Corp",
			Email:   "jane@acme.com",
		},
		Industry:      "Technology",
		CompanySize:   model.CompanySizeMedium,
		Category:      model.CategoryProspect,
		PriorityScore: 85,
		IsCompetitor:  true,
		Tags:          []string{"Sales Leader", "Enterprise"},
		Location:      &model.Location{City: "Austin", State: "TX", Country: "USA"},
		ScanQuality:   model.ScanQualityExcellent,
		OCRConfidence: 95,
		PersonSummary: "Jane leads enterprise sales at Acme.",
		ConversationStarters: []string{
			"How is the Austin market treating you?",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "VP of Sales at Acme Corp")
	assert.Contains(t, out, "jane@acme.com")
	assert.Contains(t, out, "[competitor]")
	assert.Contains(t, out, "Sales Leader, Enterprise")
	assert.Contains(t, out, "Austin TX USA")
	assert.Contains(t, out, "excellent quality, confidence 95")
	assert.Contains(t, out, "1. How is the Austin market treating you?")
	assert.NotContains(t, out, "phone:")
}

func TestPrintJSON(t *testing.T) {
	cmd, buf := newCaptureCmd()

	require.NoError(t, printJSON(cmd, map[string]string{"name": "Jane"}))
	assert.JSONEq(t, `{"name":"Jane"}`, buf.String())
}
