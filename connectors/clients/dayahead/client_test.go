package dayahead

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchDecodesPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "SE3", r.URL.Query().Get("area"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prices":[
            {"start_at":"2025-04-07T10:00:00Z","value":0.42},
            {"start_at":"2025-04-07T11:00:00Z","value":0.38}
        ]}`))
	}))
	defer srv.Close()

	c := &Client{}
	prices, err := c.Fetch(nil,
		WithBaseURL(srv.URL),
		WithArea("SE3"),
		WithStartDate(time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)),
		WithEndDate(time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)),
	)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.Equal(t, 0.42, prices[0].Price)
	require.Equal(t, time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC), prices[0].StartAt)
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := &Client{}
	_, err := c.Fetch(nil, WithBaseURL(srv.URL), WithArea("SE3"))
	require.Error(t, err)
}
