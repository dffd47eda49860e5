// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/spatial"
	"github.com/podsudnost/podsudnost/utils/httputils"
	"github.com/rs/zerolog/log"
)

const (
	yandexEndpoint = "https://geocode-maps.yandex.ru/1.x/"
	yandexTimeout  = 10 * time.Second
)

// ErrMissingAPIKey is returned when a provider is used without credentials.
var ErrMissingAPIKey = errors.New("geocoder API key is not configured")

// YandexGeocoder uses the Yandex Geocoder HTTP API.
type YandexGeocoder struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewYandexGeocoder creates a new Yandex geocoder. A nil client gets a
// default one with the provider timeout.
func NewYandexGeocoder(apiKey string, httpClient *http.Client) *YandexGeocoder {
	if httpClient == nil {
		httpClient = httputils.NewClient(httputils.ClientOptions{
			Timeout: yandexTimeout,
			Observe: metrics.ExternalObserver("yandex"),
		})
	}

	return &YandexGeocoder{
		apiKey:     apiKey,
		endpoint:   yandexEndpoint,
		httpClient: httpClient,
	}
}

type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Precision string `json:"precision"` // exact, number, near, range, street, other
							Text      string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
					Point struct {
						Pos string `json:"pos"` // "lon lat"
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// parsePos parses the "lon lat" pair used by Yandex.
func parsePos(pos string) (spatial.Point, error) {
	fields := strings.Fields(pos)
	if len(fields) != 2 {
		return spatial.Point{}, fmt.Errorf("malformed position %q", pos)
	}

	lng, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("malformed longitude %q: %w", fields[0], err)
	}

	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("malformed latitude %q: %w", fields[1], err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}

	return p, p.Validate()
}

func yandexConfidence(precision string) string {
	switch precision {
	case "exact", "number", "near":
		return "high"
	case "range", "street":
		return "medium"
	default:
		return "low"
	}
}

// Geocode implements Geocoder.
func (g *YandexGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("apikey", g.apiKey)
	params.Set("geocode", address)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocoding request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if IsTimeoutError(err) {
			return nil, &Error{Type: ErrorTypeTimeout, Message: "yandex: timeout", Err: err}
		}

		return nil, &Error{Type: ErrorTypeNetworkError, Message: "yandex: request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "yandex")
	}

	var yResp yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&yResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	members := yResp.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		log.Debug().Str("address", address).Msg("yandex: address not found")

		return nil, ErrNotFound
	}

	obj := members[0].GeoObject

	point, err := parsePos(obj.Point.Pos)
	if err != nil {
		return nil, fmt.Errorf("yandex: %w", err)
	}

	return &Result{
		Point:       point,
		Confidence:  yandexConfidence(obj.MetaDataProperty.GeocoderMetaData.Precision),
		Provider:    "yandex",
		DisplayName: obj.MetaDataProperty.GeocoderMetaData.Text,
	}, nil
}
