// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/resolver"
	"github.com/podsudnost/podsudnost/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	result *resolver.Result
	err    error
	got    []resolver.Query
}

func (s *stubResolver) Resolve(_ context.Context, q resolver.Query) (*resolver.Result, error) {
	s.got = append(s.got, q)

	return s.result, s.err
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestFindCourt(t *testing.T) {
	stub := &stubResolver{result: &resolver.Result{
		Court: courts.Record{
			Name:             "Судебный участок №1 Азовского судебного района",
			Category:         courts.Local,
			Address:          "г. Азов, ул. Мира, 1",
			Phone:            "8 (86342) 4-00-00",
			Coordinates:      &spatial.Point{Lat: 47.11, Lng: 39.42},
			ElectronicFiling: courts.FilingYes,
		},
		Category: courts.Local,
		Stage:    resolver.StateGeoAttempt,
	}}
	h := NewServer(stub, nil).Handler()

	w := do(t, h, http.MethodPost, "/api/courts/find_court/",
		`{"address":"  г. Азов, ул. Мира, 5  ","debt_amount":30000,"case_type":"имущественный_спор"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got FindCourtResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "Судебный участок №1 Азовского судебного района", got.Court.Name)
	assert.Equal(t, "мировой", got.Court.Type)
	assert.Equal(t, "да", got.Court.ElectronicFiling)
	require.NotNil(t, got.Court.Latitude)
	assert.InDelta(t, 47.11, *got.Court.Latitude, 1e-9)
	assert.InDelta(t, 39.42, *got.Court.Longitude, 1e-9)

	require.Len(t, stub.got, 1)
	assert.Equal(t, resolver.Query{
		Address:    "г. Азов, ул. Мира, 5",
		DebtAmount: 30000,
		CaseType:   "имущественный_спор",
	}, stub.got[0])
}

func TestFindCourtWithoutCoordinates(t *testing.T) {
	stub := &stubResolver{result: &resolver.Result{
		Court:       courts.Record{Name: "Азовский районный суд", Category: courts.DistrictCourt},
		Category:    courts.DistrictCourt,
		Stage:       resolver.StatePlaceholder,
		Synthesized: true,
	}}

	w := do(t, NewServer(stub, nil).Handler(), http.MethodPost, "/api/courts/find_court/",
		`{"address":"г. Азов","debt_amount":60000,"case_type":"алименты"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.JSONEq(t, `"success"`, string(raw["status"]))

	var court map[string]any
	require.NoError(t, json.Unmarshal(raw["court"], &court))

	assert.Contains(t, court, "latitude")
	assert.Nil(t, court["latitude"])
	assert.Nil(t, court["longitude"])
	assert.Equal(t, "Не указана", court["electronic_filing"])
	assert.Equal(t, "районный", court["type"])
}

func TestFindCourtValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"address":`},
		{"missing address", `{"debt_amount":1,"case_type":"алименты"}`},
		{"short address", `{"address":"ул","debt_amount":1,"case_type":"алименты"}`},
		{"blank address", `{"address":"       ","debt_amount":1,"case_type":"алименты"}`},
		{"missing debt", `{"address":"г. Азов","case_type":"алименты"}`},
		{"negative debt", `{"address":"г. Азов","debt_amount":-1,"case_type":"алименты"}`},
		{"short case type", `{"address":"г. Азов","debt_amount":1,"case_type":"аб"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubResolver{}

			w := do(t, NewServer(stub, nil).Handler(), http.MethodPost, "/api/courts/find_court/", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Empty(t, stub.got)

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, "error", got.Status)
			assert.NotEmpty(t, got.Detail)
		})
	}
}

func TestFindCourtAcceptsZeroDebtAndUnknownCaseType(t *testing.T) {
	stub := &stubResolver{result: &resolver.Result{
		Court: courts.Record{Name: "Азовский районный суд", Category: courts.DistrictCourt},
	}}

	w := do(t, NewServer(stub, nil).Handler(), http.MethodPost, "/api/courts/find_court/",
		`{"address":"г. Азов","debt_amount":0,"case_type":"неизвестный"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, stub.got, 1)
	assert.Zero(t, stub.got[0].DebtAmount)
}

func TestFindCourtErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{resolver.ErrDatasetUnavailable, http.StatusServiceUnavailable, "Данные о судах не загружены"},
		{resolver.ErrNotFound, http.StatusNotFound, "Суд не найден"},
		{resolver.ErrCanceled, StatusClientClosedRequest, "Запрос отменён"},
		{resolver.ErrInternal, http.StatusInternalServerError, "Внутренняя ошибка сервера"},
		{fmt.Errorf("wrapped: %w", resolver.ErrNotFound), http.StatusNotFound, "Суд не найден"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "Внутренняя ошибка сервера"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			stub := &stubResolver{err: tt.err}

			w := do(t, NewServer(stub, nil).Handler(), http.MethodPost, "/api/courts/find_court/",
				`{"address":"г. Азов","debt_amount":10,"case_type":"алименты"}`)
			assert.Equal(t, tt.status, w.Code)

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, ErrorResponse{Status: "error", Detail: tt.detail}, got)
		})
	}
}

func TestInfoRoutes(t *testing.T) {
	h := NewServer(&stubResolver{}, &Options{Version: "1.0.0"}).Handler()

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Добро пожаловать в API определения подсудности!"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","version":"1.0.0"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/courts/case_types/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"case_types":["имущественный_спор","расторжение_брака","алименты","раздел_имущества"]}`,
		w.Body.String())

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	h := NewServer(&stubResolver{}, &Options{Metrics: metrics.NewRegistry()}).Handler()

	do(t, h, http.MethodGet, "/health", "")

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `podsudnost_http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewServer(&stubResolver{}, nil).Run(ctx, "127.0.0.1:0")
	}()

	cancel()
	assert.NoError(t, <-done)
}
