// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/podsudnost/podsudnost/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheName = "geocode"

// CachingGeocoder memoizes successful lookups of another Geocoder in Redis.
// Redis failures degrade to calling the wrapped geocoder.
type CachingGeocoder struct {
	next   Geocoder
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCachingGeocoder wraps next with a Redis cache whose entries live ttl.
func NewCachingGeocoder(next Geocoder, client redis.UniversalClient, ttl time.Duration) *CachingGeocoder {
	return &CachingGeocoder{
		next:   next,
		client: client,
		prefix: "podsudnost:geocode:",
		ttl:    ttl,
	}
}

func (g *CachingGeocoder) key(address string) string {
	sum := sha1.Sum([]byte(address))

	return g.prefix + hex.EncodeToString(sum[:])
}

// Geocode implements Geocoder.
func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := g.key(address)

	v, err := g.client.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		var ret Result
		if err := json.Unmarshal(v, &ret); err == nil {
			metrics.ObserveCache(cacheName, "hit")

			return &ret, nil
		}

		metrics.ObserveCache(cacheName, "error")
	case errors.Is(err, redis.Nil):
		metrics.ObserveCache(cacheName, "miss")
	default:
		metrics.ObserveCache(cacheName, "error")
		log.Warn().Err(err).Msg("geocode cache unavailable")
	}

	ret, err := g.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(ret)
	if err == nil {
		err = g.client.Set(ctx, key, b, g.ttl).Err()
	}

	if err != nil {
		log.Warn().Err(err).Msg("storing geocode in cache")
	} else {
		metrics.ObserveCache(cacheName, "set")
	}

	return ret, nil
}
