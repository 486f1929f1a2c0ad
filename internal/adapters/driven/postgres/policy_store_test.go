package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// testDB connects to POLICYLENS_TEST_DATABASE_URL or skips the test
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("POLICYLENS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("POLICYLENS_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(url string, version int, text string) *domain.PolicyRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	analysis := domain.AnalysisResult{
		Summary: []string{"summary for version"},
		Score:   domain.Score{Value: 40 + version, Explanation: "test"},
	}
	analysis.Normalize()
	return &domain.PolicyRecord{
		ID:               uuid.NewString(),
		URL:              url,
		Domain:           "example.com",
		Version:          version,
		Title:            "Privacy Policy",
		RawText:          text,
		ContentHash:      domain.ContentHash(text),
		ExtractionMethod: domain.FetchMethodHTTP,
		Analysis:         analysis,
		CreatedAt:        now,
		LastChecked:      now,
	}
}

func TestPolicyStore_SaveVersionAndGet(t *testing.T) {
	db := testDB(t)
	store := NewPolicyStore(db)
	ctx := context.Background()
	url := "https://example.com/privacy/" + uuid.NewString()

	first := testRecord(url, 1, "first text")
	saved, err := store.SaveVersion(ctx, first)
	require.NoError(t, err)
	assert.True(t, saved.IsNew)
	assert.Equal(t, 1, saved.Record.Version)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.URL, got.URL)
	assert.Equal(t, first.ContentHash, got.ContentHash)
	assert.Equal(t, first.Analysis.Score, got.Analysis.Score)
	assert.Empty(t, got.Company)
	assert.Nil(t, got.LastUpdated)

	second := testRecord(url, 1, "second text")
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.LastChecked = second.CreatedAt
	saved, err = store.SaveVersion(ctx, second)
	require.NoError(t, err)
	assert.True(t, saved.IsNew)
	assert.Equal(t, 2, saved.Record.Version)
	assert.True(t, first.CreatedAt.Equal(saved.Record.CreatedAt), "createdAt carries across versions")

	latest, err := store.GetByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	versions, err := store.ListVersions(ctx, url)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)

	history, err := store.ListHistory(ctx, url)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].PolicyID)
	assert.Equal(t, second.ID, history[0].SupersededBy)
	assert.Equal(t, "first text", history[0].RawText)
	assert.Equal(t, first.Analysis.Summary, history[0].Summary)
	assert.True(t, second.LastChecked.Equal(history[0].SnapshotDate))
}

func TestPolicyStore_SaveVersionUnchangedTouches(t *testing.T) {
	db := testDB(t)
	store := NewPolicyStore(db)
	ctx := context.Background()
	url := "https://example.com/privacy/" + uuid.NewString()

	first := testRecord(url, 1, "same text")
	_, err := store.SaveVersion(ctx, first)
	require.NoError(t, err)

	again := testRecord(url, 1, "same text")
	again.LastChecked = first.LastChecked.Add(time.Hour)
	saved, err := store.SaveVersion(ctx, again)
	require.NoError(t, err)
	assert.False(t, saved.IsNew)
	assert.Equal(t, first.ID, saved.PolicyID)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, again.LastChecked.Equal(got.LastChecked))

	_, err = store.Get(ctx, again.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPolicyStore_ConcurrentSavesKeepOneChain(t *testing.T) {
	db := testDB(t)
	store := NewPolicyStore(db)
	ctx := context.Background()
	url := "https://example.com/privacy/" + uuid.NewString()

	const writers = 6
	results := make([]*domain.SaveResult, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = store.SaveVersion(ctx, testRecord(url, 1, "racing text"))
		}()
	}
	wg.Wait()

	created := 0
	for i := range writers {
		require.NoError(t, errs[i])
		if results[i].IsNew {
			created++
		}
		assert.Equal(t, results[0].PolicyID, results[i].PolicyID)
	}
	assert.Equal(t, 1, created)

	versions, err := store.ListVersions(ctx, url)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestHashLockName(t *testing.T) {
	a := hashLockName("https://example.com/privacy")
	assert.Equal(t, a, hashLockName("https://example.com/privacy"))
	assert.NotEqual(t, a, hashLockName("https://example.com/terms"))
}

func TestTouch_UnknownID(t *testing.T) {
	db := testDB(t)

	err := touch(context.Background(), db, uuid.NewString(), time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPolicyStore_NotFound(t *testing.T) {
	db := testDB(t)
	store := NewPolicyStore(db)

	_, err := store.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetByURL(context.Background(), "https://missing.example.com/"+uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestLogStore_AppendAndCount(t *testing.T) {
	db := testDB(t)
	store := NewRequestLogStore(db)
	ctx := context.Background()
	url := "https://example.com/privacy/" + uuid.NewString()
	user := "user-1"

	for _, cached := range []bool{false, true} {
		require.NoError(t, store.Append(ctx, &domain.AnalysisRequestLog{
			ID:        uuid.NewString(),
			URL:       url,
			UserID:    &user,
			Cached:    cached,
			UserAgent: "test",
			CreatedAt: time.Now().UTC(),
		}))
	}

	count, err := store.CountByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDecodeAnalysis(t *testing.T) {
	analysis, err := decodeAnalysis([]byte(`{"summary":["a"],"score":{"value":140,"explanation":"x"},"provider":"openai"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, analysis.Summary)
	assert.Equal(t, 100, analysis.Score.Value)
	assert.Equal(t, "openai", analysis.Provider)
	assert.NotNil(t, analysis.DataSharing)

	empty, err := decodeAnalysis(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.RedFlags)

	_, err = decodeAnalysis([]byte(`{not json`))
	assert.Error(t, err)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.True(t, nullString("acme").Valid)
	assert.False(t, nullStringPtr(nil).Valid)
	assert.False(t, nullTime(nil).Valid)

	now := time.Now()
	p := timePtr(nullTime(&now))
	require.NotNil(t, p)
	assert.Equal(t, time.UTC, p.Location())
}
