package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

func TestWriteContactsXLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "contacts.xlsx")
	scanned := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	contacts := []model.Contact{
		{
			ID: "c-1",
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
			Location:      &model.Location{City: "Austin", Country: "USA"},
			ScanQuality:   model.ScanQualityExcellent,
			ScanTimestamp: scanned,
		},
		{
			ID:            "c-2",
			RawExtraction: model.RawExtraction{Name: "Bob Smith", Company: "Initech"},
			Category:      model.CategoryOther,
		},
	}

	require.NoError(t, writeContactsXLSX(contacts, out))

	file, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Contacts", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0]
	assert.Equal(t, "ID", header.Cells[0].Value)
	assert.Equal(t, "Scanned At", header.Cells[len(exportHeader)-1].Value)

	row := sheet.Rows[1]
	assert.Equal(t, "Jane Doe", row.Cells[1].Value)
	assert.Equal(t, "Acme Corp", row.Cells[3].Value)
	assert.Equal(t, "medium", row.Cells[8].Value)
	priority, err := row.Cells[10].Int()
	require.NoError(t, err)
	assert.Equal(t, 85, priority)
	assert.Equal(t, "Sales Leader, Enterprise", row.Cells[12].Value)
	assert.Equal(t, "Austin", row.Cells[13].Value)
	assert.Equal(t, "2026-03-10 14:30", row.Cells[17].Value)
}

func TestPrintContactTable(t *testing.T) {
	cmd, buf := newCaptureCmd()

	printContactTable(cmd, []model.Contact{
		{
			ID:            "c-1",
			RawExtraction: model.RawExtraction{Name: "Jane Doe", Company: "Acme"},
			Category:      model.CategoryProspect,
			PriorityScore: 85,
			IsCompetitor:  true,
		},
		{
			ID:            "c-2",
			RawExtraction: model.RawExtraction{Name: "Bob Smith", Company: "Initech"},
			Category:      model.CategoryOther,
			PriorityScore: 40,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "! c-1")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "prospect (p85)")
	assert.Contains(t, out, "Bob Smith")
}

func TestPrintContactTable_Empty(t *testing.T) {
	cmd, buf := newCaptureCmd()
	printContactTable(cmd, nil)
	assert.Equal(t, "no contacts\n", buf.String())
}
