// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// StatusClientClosedRequest is reported when the caller goes away before
// the court is resolved.
const StatusClientClosedRequest = 499

// Resolver is the capability the server needs from the core.
type Resolver interface {
	Resolve(ctx context.Context, q resolver.Query) (*resolver.Result, error)
}

// Options configuration for Server.
type Options struct {
	// Version reported by /health
	Version string

	// Metrics registry exposed on /metrics, none when nil
	Metrics *prometheus.Registry

	// ShutdownTimeout bounds the graceful shutdown
	ShutdownTimeout time.Duration
}

// Server is the court jurisdiction API.
type Server struct {
	resolver Resolver
	options  Options
}

// NewServer creates a Server.
func NewServer(r Resolver, options *Options) *Server {
	s := &Server{resolver: r}
	if options != nil {
		s.options = *options
	}

	if s.options.Version == "" {
		s.options.Version = "unknown"
	}

	if s.options.ShutdownTimeout <= 0 {
		s.options.ShutdownTimeout = 10 * time.Second
	}

	return s
}

// Handler returns the routes of the API.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(), observe())

	r.GET("/", s.root)
	r.GET("/health", s.health)

	api := r.Group("/api/courts")
	api.POST("/find_court/", s.findCourt)
	api.GET("/case_types/", s.caseTypes)

	if s.options.Metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.options.Metrics)))
	}

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Добро пожаловать в API определения подсудности!"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": s.options.Version})
}

func (s *Server) caseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"case_types": slices.Clone(resolver.CaseTypes)})
}

// CourtRequest is the body of find_court.
type CourtRequest struct {
	Address    string   `json:"address" binding:"required,min=5"`
	DebtAmount *float64 `json:"debt_amount" binding:"required,gte=0"`
	CaseType   string   `json:"case_type" binding:"required,min=3"`
}

// CourtResponse is a resolved court as rendered by the API.
type CourtResponse struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Address          string   `json:"address"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Website          string   `json:"website"`
	ElectronicFiling string   `json:"electronic_filing"`
	Polygon          string   `json:"polygon"`
}

// FindCourtResponse is the success body of find_court.
type FindCourtResponse struct {
	Status string        `json:"status"`
	Court  CourtResponse `json:"court"`
}

// ErrorResponse is the body of every failure.
type ErrorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// filingLabel renders the electronic filing flag the way clients expect.
func filingLabel(f courts.ElectronicFiling) string {
	if f == courts.FilingUnknown {
		return "Не указана"
	}

	return f.String()
}

func newCourtResponse(r *courts.Record) CourtResponse {
	ret := CourtResponse{
		Name:             r.Name,
		Type:             r.Category.String(),
		Address:          r.Address,
		Phone:            r.Phone,
		Email:            r.Email,
		Website:          r.Website,
		ElectronicFiling: filingLabel(r.ElectronicFiling),
		Polygon:          r.Polygon,
	}

	if r.Coordinates != nil {
		lat, lng := r.Coordinates.Lat, r.Coordinates.Lng
		ret.Latitude, ret.Longitude = &lat, &lng
	}

	return ret
}

func fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Status: "error", Detail: detail})
}

func (s *Server) findCourt(c *gin.Context) {
	var req CourtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())

		return
	}

	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		fail(c, http.StatusUnprocessableEntity, "Адрес не может быть пустым")

		return
	}

	if !resolver.IsKnownCaseType(req.CaseType) {
		log.Warn().Str("case_type", req.CaseType).Msg("unknown case type")
	}

	res, err := s.resolver.Resolve(c.Request.Context(), resolver.Query{
		Address:    req.Address,
		DebtAmount: *req.DebtAmount,
		CaseType:   req.CaseType,
	})

	switch {
	case err == nil:
	case errors.Is(err, resolver.ErrDatasetUnavailable):
		fail(c, http.StatusServiceUnavailable, "Данные о судах не загружены")

		return
	case errors.Is(err, resolver.ErrNotFound):
		fail(c, http.StatusNotFound, "Суд не найден")

		return
	case errors.Is(err, resolver.ErrCanceled):
		fail(c, StatusClientClosedRequest, "Запрос отменён")

		return
	case errors.Is(err, resolver.ErrInvalidQuery):
		fail(c, http.StatusUnprocessableEntity, err.Error())

		return
	default:
		log.Error().Err(err).Str("address", req.Address).Msg("resolving court")
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")

		return
	}

	log.Info().Str("court", res.Court.Name).Stringer("stage", res.Stage).Msg("court found")

	c.JSON(http.StatusOK, FindCourtResponse{
		Status: "success",
		Court:  newCourtResponse(&res.Court),
	})
}
