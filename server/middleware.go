// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/podsudnost/podsudnost/metrics"
	"github.com/rs/zerolog/log"
)

// route returns the matched route, or a fixed label for unmatched paths so
// that metrics keep a bounded cardinality.
func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}

	return "unmatched"
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		}

		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("request")
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.ObserveHTTP(route(c), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
