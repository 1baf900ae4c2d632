package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTag(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := testContact("Jane Doe", "Acme Corp")
	require.NoError(t, st.AddContact(ctx, contact))

	updated, err := AddTag(ctx, st, contact.ID, "Follow Up")
	require.NoError(t, err)
	assert.Equal(t, []string{"Networking", "Follow Up"}, updated.Tags)

	// Adding the same tag again is a no-op.
	updated, err = AddTag(ctx, st, contact.ID, "Follow Up")
	require.NoError(t, err)
	assert.Equal(t, []string{"Networking", "Follow Up"}, updated.Tags)

	got, err := st.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Networking", "Follow Up"}, got.Tags)
}

func TestRemoveTag(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := testContact("Jane Doe", "Acme Corp")
	contact.Tags = []string{"Networking", "Follow Up"}
	require.NoError(t, st.AddContact(ctx, contact))

	updated, err := RemoveTag(ctx, st, contact.ID, "Networking")
	require.NoError(t, err)
	assert.Equal(t, []string{"Follow Up"}, updated.Tags)

	_, err = RemoveTag(ctx, st, contact.ID, "Networking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tag")
}

func TestAddTag_ContactMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := AddTag(context.Background(), st, "missing", "Tag")
	assert.Error(t, err)
}
