// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/podsudnost/podsudnost/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoogleServer(t *testing.T, body string) *GoogleMapsGeocoder {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		assert.Equal(t, "ru", r.URL.Query().Get("region"))
		assert.Contains(t, r.URL.Query().Get("components"), "country:RU")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	g := NewGoogleMapsGeocoder("key", server.Client())
	g.endpoint = server.URL

	return g
}

func TestGoogleGeocode(t *testing.T) {
	g := newGoogleServer(t, `{"status":"OK","results":[{
		"geometry":{"location":{"lat":47.2225,"lng":39.7188},"location_type":"GEOMETRIC_CENTER"},
		"formatted_address":"Ростов-на-Дону"}]}`)

	got, err := g.Geocode(context.Background(), "Ростов-на-Дону")
	require.NoError(t, err)
	assert.Equal(t, &Result{
		Point:       spatial.Point{Lat: 47.2225, Lng: 39.7188},
		Confidence:  "medium",
		Provider:    "google_maps",
		DisplayName: "Ростов-на-Дону",
	}, got)
}

func TestGoogleGeocode_Statuses(t *testing.T) {
	tests := []struct {
		body     string
		wantType ErrorType
	}{
		{`{"status":"ZERO_RESULTS","results":[]}`, ErrorTypeNotFound},
		{`{"status":"OVER_QUERY_LIMIT"}`, ErrorTypeQuotaExceeded},
		{`{"status":"INVALID_REQUEST","error_message":"bad"}`, ErrorTypeInvalidRequest},
		{`{"status":"UNKNOWN_ERROR"}`, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		g := newGoogleServer(t, tt.body)

		_, err := g.Geocode(context.Background(), "somewhere")

		var geoErr *Error
		require.ErrorAs(t, err, &geoErr, tt.body)
		assert.Equal(t, tt.wantType, geoErr.Type, tt.body)
	}
}
