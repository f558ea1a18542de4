package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantLat float64
	}{
		{
			name:    "ok",
			body:    `{"status":"OK","results":[{"formatted_address":"Pl. de Catalunya, Barcelona","geometry":{"location":{"lat":41.387,"lng":2.170}}}]}`,
			wantLat: 41.387,
		},
		{
			name:    "zero results",
			body:    `{"status":"ZERO_RESULTS","results":[]}`,
			wantErr: ErrNoResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "k", r.URL.Query().Get("key"))
				assert.Equal(t, "Plaça de Catalunya", r.URL.Query().Get("address"))
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			loc, err := NewClientWithURL(srv.URL, "k").Geocode(context.Background(), "Plaça de Catalunya")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLat, loc.Lat, 1e-9)
			assert.Equal(t, "Pl. de Catalunya, Barcelona", loc.FormattedAddress)
		})
	}
}

func TestGeocodeNotConfigured(t *testing.T) {
	_, err := NewClient("").Geocode(context.Background(), "anywhere")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeocodeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	}))
	defer srv.Close()

	_, err := NewClientWithURL(srv.URL, "k").Geocode(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}
