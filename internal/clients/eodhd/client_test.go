package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

func TestNewClient_NoKey(t *testing.T) {
	assert.Nil(t, NewClient("http://x", "", time.Second, zerolog.Nop()))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr error
	}{
		{"close", `{"code":"AAPL.US","close":150.5,"previousClose":149}`, 150.5, nil},
		{"not available falls back", `{"code":"AAPL.US","close":"NA","previousClose":149}`, 149, nil},
		{"no data", `{"code":"AAPL.US","close":"NA","previousClose":"NA"}`, 0, domain.ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotToken string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotToken = r.URL.Query().Get("api_token")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "secret", time.Second, zerolog.New(nil).Level(zerolog.Disabled))
			q, err := client.Quote(context.Background(), "aapl")

			assert.Equal(t, "/api/real-time/AAPL.US", gotPath)
			assert.Equal(t, "secret", gotToken)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Price)
			assert.Equal(t, "AAPL", q.Symbol)
			assert.Equal(t, "eodhd", q.Source)
		})
	}
}
