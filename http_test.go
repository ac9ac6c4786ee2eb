// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
	}
}

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     uint64          `json:"id"`
}

func TestHTTPServiceRoundTrip(t *testing.T) {
	ctx := context.Background()

	var gotMethod, gotToken, gotApp string
	var gotParams json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Token")
		gotApp = r.URL.Query().Get("app")

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMethod = req.Method
		gotParams = req.Params

		fmt.Fprintf(w, `{"jsonrpc":"2.0","result":{"$numberLong":"7"},"id":%d}`, req.ID)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(srv.URL,
		WithHeader("X-Token", "secret"),
		WithQueryParam("app", "demo"),
	)
	require.NoError(t, err)

	coll := NewClient(svc).Database("db").Collection("tasks")

	done := make(chan struct{})
	coll.Count(ctx, `{}`, func(count uint64, err error) {
		assert.NoError(t, err)
		assert.EqualValues(t, 7, count)
		close(done)
	})
	waitFor(t, done)

	assert.Equal(t, "count", gotMethod)
	assert.JSONEq(t, `{"arguments":[{"database":"db","collection":"tasks","query":{}}]}`, string(gotParams))
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "demo", gotApp)
}

func TestHTTPServiceRemoteError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","error":{"code":-32601,"message":"function not found"},"id":%d}`, req.ID)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(srv.URL)
	require.NoError(t, err)
	coll := NewCollection(svc, "db", "tasks")

	done := make(chan struct{})
	coll.FindOne(ctx, `{}`, func(doc *string, err error) {
		assert.Nil(t, doc)
		assert.True(t, IsServiceError(err), "expected service error, got %v", err)
		assert.Contains(t, err.Error(), "function not found")
		close(done)
	})
	waitFor(t, done)
}

func TestHTTPServiceNullResultIsAbsent(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","result":null,"id":%d}`, req.ID)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(srv.URL)
	require.NoError(t, err)
	coll := NewCollection(svc, "db", "tasks")

	done := make(chan struct{})
	coll.FindOne(ctx, `{"missing":true}`, func(doc *string, err error) {
		assert.NoError(t, err)
		assert.Nil(t, doc)
		close(done)
	})
	waitFor(t, done)
}

func TestHTTPServiceStatusError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(srv.URL)
	require.NoError(t, err)
	coll := NewCollection(svc, "db", "tasks")

	done := make(chan struct{})
	coll.Find(ctx, `{}`, func(docs string, err error) {
		assert.Empty(t, docs)
		assert.True(t, IsServiceError(err))
		assert.Contains(t, err.Error(), "500")
		close(done)
	})
	waitFor(t, done)
}

func TestHTTPServiceBadEndpoint(t *testing.T) {
	_, err := NewHTTPService("://not a url")
	require.Error(t, err)
}
