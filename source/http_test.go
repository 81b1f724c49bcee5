package source_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOverrides_Envelope(t *testing.T) {
	// GIVEN: A pricing endpoint answering with the envelope
	// WHEN: Fetching
	// THEN: The action query is sent and the inner map comes back

	var gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"pricing":{"BASE_NIGHT":210,"TRAVEL_WR":"35"}}`))
	}))
	defer srv.Close()

	src, err := source.NewHTTPSource(srv.URL+"/exec?sheet=rates", time.Second)
	require.NoError(t, err)

	payload, err := src.FetchOverrides(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pricing", gotAction)
	assert.Equal(t, json.Number("210"), payload["BASE_NIGHT"])
	assert.Equal(t, "35", payload["TRAVEL_WR"])
	assert.Contains(t, src.URL(), "sheet=rates")
}

func TestFetchOverrides_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "ok false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"ok":false,"error":"sheet locked"}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>login</html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			src, err := source.NewHTTPSource(srv.URL, time.Second)
			require.NoError(t, err)

			payload, err := src.FetchOverrides(context.Background())

			assert.Error(t, err)
			assert.Nil(t, payload)
		})
	}
}

func TestFetchOverrides_MalformedIsInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"pricing":[1,2]}`))
	}))
	defer srv.Close()
	src, _ := source.NewHTTPSource(srv.URL, time.Second)

	_, err := src.FetchOverrides(context.Background())

	assert.ErrorIs(t, err, generic.ErrInvalidPayload)
}

func TestFetchOverrides_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	src, _ := source.NewHTTPSource(srv.URL, 50*time.Millisecond)
	_, err := src.FetchOverrides(context.Background())

	assert.Error(t, err)
}

func TestNewHTTPSource_RejectsBadURL(t *testing.T) {
	_, err := source.NewHTTPSource("ftp://pricing.example", time.Second)
	assert.Error(t, err)

	_, err = source.NewHTTPSource("://nope", time.Second)
	assert.Error(t, err)
}
