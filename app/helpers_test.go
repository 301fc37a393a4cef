package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	app := newBareApplication(testConfig())

	type input struct {
		Title string    `json:"title"`
		ID    uuid.UUID `json:"id"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "Valid", body: `{"title":"x","id":"5b0f6a1e-3c8f-4d53-9a4f-4a3f8e1d2c11"}`},
		{name: "Empty", body: ``, wantErr: "request body must not be empty"},
		{name: "Syntax", body: `{"title":}`, wantErr: "badly-formed JSON (at character"},
		{name: "Truncated", body: `{"title":"x"`, wantErr: "request body contains badly-formed JSON"},
		{name: "Wrong Type", body: `{"title":1}`, wantErr: `invalid value for the "title" field`},
		{name: "Unknown Field", body: `{"name":"x"}`, wantErr: `unknown field "name"`},
		{name: "Bad UUID", body: `{"id":"nope"}`, wantErr: "request body contains an invalid value"},
		{name: "Two Values", body: `{"title":"x"}{"title":"y"}`, wantErr: "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			res := httptest.NewRecorder()

			var dst input
			err := app.parseJSON(res, req, &dst)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "x", dst.Title)
				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReadLimitOffsetParams(t *testing.T) {
	app := newBareApplication(testConfig())

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{query: "", wantLimit: 0, wantOffset: 0},
		{query: "limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "limit=x", wantErr: true},
		{query: "offset=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			limit, offset, err := app.readLimitOffsetParams(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestReadUUIDParam(t *testing.T) {
	app := newBareApplication(testConfig())
	id := uuid.New()

	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), httprouter.ParamsKey, httprouter.Params{{Key: "id", Value: value}})
		return req.WithContext(ctx)
	}

	got, err := app.readUUIDParam(withParam(id.String()), "id")
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = app.readUUIDParam(withParam("42"), "id")
	assert.Error(t, err)
}
