package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testContact(name, company string) *model.Contact {
	return &model.Contact{
		RawExtraction: model.RawExtraction{
			Name:    name,
			Company: company,
			Email:   "someone@example.com",
			Phone:   "555-000-1111",
		},
		Industry:    "Technology",
		Category:    model.CategoryProspect,
		CompanySize: model.CompanySizeLarge,
		Tags:        []string{"Networking"},
		ScanQuality: model.ScanQualityGood,
	}
}

func TestSQLite_AddAndGetContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, contact))

	assert.NotEmpty(t, contact.ID)
	assert.False(t, contact.CreatedAt.IsZero())

	got, err := st.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, model.CategoryProspect, got.Category)
	assert.Equal(t, []string{"Networking"}, got.Tags)
	assert.Equal(t, model.ScanQualityGood, got.ScanQuality)
}

func TestSQLite_GetContact_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetContact(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListContacts_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := testContact("Older", "First Co")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.AddContact(ctx, older))

	newer := testContact("Newer", "Second Co")
	require.NoError(t, st.AddContact(ctx, newer))

	contacts, err := st.ListContacts(ctx, ContactFilter{})
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Newer", contacts[0].Name)
	assert.Equal(t, "Older", contacts[1].Name)
}

func TestSQLite_ListContacts_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	prospect := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, prospect))

	rival := testContact("John Roe", "Rival Inc")
	rival.Category = model.CategoryVendor
	rival.IsCompetitor = true
	rival.Tags = []string{"Competitor"}
	require.NoError(t, st.AddContact(ctx, rival))

	byCategory, err := st.ListContacts(ctx, ContactFilter{Category: model.CategoryVendor})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "John Roe", byCategory[0].Name)

	byTag, err := st.ListContacts(ctx, ContactFilter{Tag: "Networking"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Jane Doe", byTag[0].Name)

	competitors, err := st.ListContacts(ctx, ContactFilter{CompetitorsOnly: true})
	require.NoError(t, err)
	require.Len(t, competitors, 1)
	assert.True(t, competitors[0].IsCompetitor)

	bySize, err := st.ListContacts(ctx, ContactFilter{CompanySize: model.CompanySizeStartup})
	require.NoError(t, err)
	assert.Empty(t, bySize)
}

func TestSQLite_ListContacts_FilterByLocation(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	domestic := testContact("Jane Doe", "Acme Corp")
	domestic.Location = &model.Location{City: "San Francisco", Country: "USA"}
	require.NoError(t, st.AddContact(ctx, domestic))

	abroad := testContact("Hans Gruber", "Nakatomi GmbH")
	abroad.Location = &model.Location{City: "Berlin", Country: "Germany"}
	require.NoError(t, st.AddContact(ctx, abroad))

	unplaced := testContact("John Roe", "Rival Inc")
	require.NoError(t, st.AddContact(ctx, unplaced))

	byCountry, err := st.ListContacts(ctx, ContactFilter{Country: "Germany"})
	require.NoError(t, err)
	require.Len(t, byCountry, 1)
	assert.Equal(t, "Hans Gruber", byCountry[0].Name)

	byCity, err := st.ListContacts(ctx, ContactFilter{City: "San Francisco"})
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, "Jane Doe", byCity[0].Name)

	both, err := st.ListContacts(ctx, ContactFilter{Country: "USA", City: "Berlin"})
	require.NoError(t, err)
	assert.Empty(t, both)
}

func TestSQLite_UpdateContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, contact))
	createdAt := contact.CreatedAt

	contact.Notes = "met at conference"
	contact.PriorityScore = 85
	require.NoError(t, st.UpdateContact(ctx, contact))

	got, err := st.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "met at conference", got.Notes)
	assert.Equal(t, 85, got.PriorityScore)
	assert.Equal(t, createdAt.Unix(), got.CreatedAt.Unix())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestSQLite_UpdateContact_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	contact := testContact("Ghost", "Nowhere Inc")
	contact.ID = "missing"
	err := st.UpdateContact(context.Background(), contact)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_DeleteContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, contact))

	require.NoError(t, st.DeleteContact(ctx, contact.ID))

	_, err := st.GetContact(ctx, contact.ID)
	assert.Error(t, err)

	err = st.DeleteContact(ctx, contact.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_SearchContacts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	jane := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, jane))

	john := testContact("John Roe", "Globex LLC")
	john.Tags = []string{"Robotics"}
	require.NoError(t, st.AddContact(ctx, john))

	// Case-insensitive match on company.
	got, err := st.SearchContacts(ctx, "ACME", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].Name)

	// Match on a tag.
	got, err = st.SearchContacts(ctx, "robotics", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "John Roe", got[0].Name)

	// No match.
	got, err = st.SearchContacts(ctx, "zzz-no-such", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
