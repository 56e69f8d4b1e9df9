package store

import (
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/require"

	"carechat/pkg/models"
)

func openTemp(t *testing.T) *Pebble {
	t.Helper()
	p, err := Open(t.TempDir() + "/db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func sampleStore(ts time.Time) *models.ConversationStore {
	return &models.ConversationStore{
		Sessions: []models.Session{
			{ID: "s1", Title: "headache workup", Active: true, Timestamp: ts.Format(time.RFC3339Nano), MessageCount: 2},
			{ID: "s2", Title: models.TitleSentinel, Timestamp: ts.Format(time.RFC3339Nano)},
		},
		MessagesBySession: map[string][]models.Message{
			"s1": {
				{ID: "msg-1-1", Content: "I have a headache", Role: models.RoleUser, Timestamp: ts, SessionID: "s1"},
				{ID: "msg-1-2", Content: "How long has it lasted?", Role: models.RoleAssistant, Timestamp: ts.Add(time.Second), SessionID: "s1"},
			},
			"s2": {},
		},
		CurrentSessionID: "s1",
	}
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	p := openTemp(t)
	require.Nil(t, p.Load())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := openTemp(t)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456000, time.UTC)
	want := sampleStore(ts)

	cur := want.CurrentSessionID
	p.Save(Partial{Sessions: want.Sessions, MessagesBySession: want.MessagesBySession, CurrentSessionID: &cur})

	got := p.Load()
	require.NotNil(t, got)
	require.Equal(t, want.CurrentSessionID, got.CurrentSessionID)
	require.Equal(t, want.Sessions, got.Sessions)
	require.Len(t, got.MessagesBySession["s1"], 2)
	require.True(t, want.MessagesBySession["s1"][0].Timestamp.Equal(got.MessagesBySession["s1"][0].Timestamp))
	require.Equal(t, "I have a headache", got.MessagesBySession["s1"][0].Content)
}

func TestSaveShallowMergeReplacesWholeMap(t *testing.T) {
	p := openTemp(t)
	ts := time.Now().UTC()
	full := sampleStore(ts)
	cur := full.CurrentSessionID
	p.Save(Partial{Sessions: full.Sessions, MessagesBySession: full.MessagesBySession, CurrentSessionID: &cur})

	// A partial carrying only the map replaces it entirely; s1 disappears.
	p.Save(Partial{MessagesBySession: map[string][]models.Message{"s2": {}}})

	got := p.Load()
	require.NotNil(t, got)
	_, hasS1 := got.MessagesBySession["s1"]
	require.False(t, hasS1)
	// Untouched fields survive the merge.
	require.Equal(t, "s1", got.CurrentSessionID)
	require.Len(t, got.Sessions, 2)
}

func TestLoadCorruptBlobReturnsNil(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.db.Set([]byte(blobKey), []byte("{not valid json"), pebble.Sync))
	require.Nil(t, p.Load())
}

func TestClearRemovesEntry(t *testing.T) {
	p := openTemp(t)
	cur := "s1"
	p.Save(Partial{Sessions: []models.Session{{ID: "s1", Active: true}}, CurrentSessionID: &cur})
	require.NotNil(t, p.Load())

	p.Clear()
	require.Nil(t, p.Load())
}

func TestMemoryFailWritesDegrades(t *testing.T) {
	m := NewMemory()
	m.FailWrites = true
	cur := "s1"
	m.Save(Partial{Sessions: []models.Session{{ID: "s1", Active: true}}, CurrentSessionID: &cur})
	require.Nil(t, m.Load())
}

func TestMemoryLoadReturnsCopies(t *testing.T) {
	m := NewMemory()
	ts := time.Now().UTC()
	full := sampleStore(ts)
	cur := full.CurrentSessionID
	m.Save(Partial{Sessions: full.Sessions, MessagesBySession: full.MessagesBySession, CurrentSessionID: &cur})

	a := m.Load()
	require.NotNil(t, a)
	a.Sessions[0].Title = "mutated"

	b := m.Load()
	require.Equal(t, "headache workup", b.Sessions[0].Title)
}
