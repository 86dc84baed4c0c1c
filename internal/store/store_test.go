package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "extractions.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSaveAndGetExtraction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveExtraction(ctx, ExtractionRecord{
		DocumentURL:      "https://example.com/bill.pdf",
		RequestedAt:      time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Success:          true,
		ItemCount:        7,
		ReconciledAmount: "572.03",
		ResponseJSON:     []byte(`{"is_success":true}`),
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.GetExtraction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/bill.pdf", got.DocumentURL)
	assert.True(t, got.Success)
	assert.Equal(t, 7, got.ItemCount)
	assert.Equal(t, "572.03", got.ReconciledAmount)
	assert.JSONEq(t, `{"is_success":true}`, string(got.ResponseJSON))
	assert.Equal(t, 2025, got.RequestedAt.Year())
}

func TestGetExtractionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetExtraction(context.Background(), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListExtractionsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, url := range []string{"https://a.example/1.pdf", "https://a.example/2.pdf", "https://a.example/3.pdf"} {
		_, err := s.SaveExtraction(ctx, ExtractionRecord{
			DocumentURL:      url,
			RequestedAt:      time.Now().Add(time.Duration(i) * time.Minute),
			Success:          i%2 == 0,
			ItemCount:        i,
			ReconciledAmount: "0.00",
			ResponseJSON:     []byte(`{}`),
		})
		require.NoError(t, err)
	}

	recs, err := s.ListExtractions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "https://a.example/3.pdf", recs[0].DocumentURL)
	assert.Equal(t, "https://a.example/2.pdf", recs[1].DocumentURL)
	// Response bodies stay out of listings.
	assert.Nil(t, recs[0].ResponseJSON)
}
