package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/203.0.113.7", r.URL.Path)
		assert.Equal(t, "status,message,country,countryCode,city,lat,lon", r.URL.Query().Get("fields"))
		fmt.Fprint(w, `{"status":"success","country":"Netherlands","countryCode":"NL","city":"Amsterdam","lat":52.37,"lon":4.89}`)
	}))
	defer srv.Close()

	l := NewAPILookup()
	l.BaseURL = srv.URL

	loc, err := l.Lookup(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "Netherlands", loc.Country)
	assert.Equal(t, "NL", loc.CountryCode)
	assert.Equal(t, "Amsterdam", loc.City)
	assert.Equal(t, 52.37, loc.Lat)
	assert.Equal(t, 4.89, loc.Lon)
}

func TestAPILookup_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"fail","message":"reserved range"}`)
	}))
	defer srv.Close()

	l := NewAPILookup()
	l.BaseURL = srv.URL

	_, err := l.Lookup(context.Background(), "240.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved range")
}

func TestAPILookup_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	l := NewAPILookup()
	l.BaseURL = srv.URL

	_, err := l.Lookup(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}
