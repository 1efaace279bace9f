package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal stand-in for the settlement HTTP API.
type fakeAPI struct {
	mux *http.ServeMux

	loginCalls   int
	createCalls  int
	processCalls int

	createStatus int
	createBody   any
	processedID  string
	processedTxn string
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{
		mux:          http.NewServeMux(),
		createStatus: http.StatusCreated,
		createBody: map[string]any{
			"batch": map[string]any{
				"batch_id":     "PB-20240101-abcd1234",
				"status":       "pending",
				"total_shops":  2,
				"total_amount": "1100",
			},
		},
	}

	f.mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls++
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "settle-me" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
	})

	f.mux.HandleFunc("/api/revenue/batch/create", func(w http.ResponseWriter, r *http.Request) {
		f.createCalls++
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(f.createStatus)
		_ = json.NewEncoder(w).Encode(f.createBody)
	})

	f.mux.HandleFunc("/api/revenue/batch/PB-20240101-abcd1234/process", func(w http.ResponseWriter, r *http.Request) {
		f.processCalls++
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.processedID = "PB-20240101-abcd1234"
		f.processedTxn = req["transaction_id"]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records_updated": 4,
			"batch":           map[string]any{"batch_id": "PB-20240101-abcd1234", "status": "completed"},
		})
	})

	return f
}

func TestClientLogin(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api.mux)
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	t.Run("valid credentials", func(t *testing.T) {
		token, err := client.Login(context.Background(), "admin@trooc.io", "settle-me")
		require.NoError(t, err)
		assert.Equal(t, "test-token", token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "admin@trooc.io", "wrong")
		assert.Error(t, err)
	})
}

func TestClientCreateBatchEmptyWindow(t *testing.T) {
	api := newFakeAPI()
	api.createStatus = http.StatusUnprocessableEntity
	api.createBody = map[string]string{"error": "no unpaid revenue", "code": "no_eligible_records"}
	srv := httptest.NewServer(api.mux)
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.CreateBatch(context.Background(), "test-token")
	assert.ErrorIs(t, err, ErrNoEligibleRecords)
}

func TestRunSettlement(t *testing.T) {
	t.Run("full run logs in, creates and processes a batch", func(t *testing.T) {
		api := newFakeAPI()
		srv := httptest.NewServer(api.mux)
		defer srv.Close()

		s := NewScheduler(NewClient(srv.URL, 5*time.Second), nil, time.Hour, "admin@trooc.io", "settle-me")
		require.NoError(t, s.runSettlement(context.Background()))

		assert.Equal(t, 1, api.loginCalls)
		assert.Equal(t, 1, api.createCalls)
		assert.Equal(t, 1, api.processCalls)
		assert.Equal(t, "PB-20240101-abcd1234", api.processedID)
		assert.Regexp(t, regexp.MustCompile(`^TXN-\d{14}-[0-9a-f]{8}$`), api.processedTxn)
	})

	t.Run("empty window is not an error", func(t *testing.T) {
		api := newFakeAPI()
		api.createStatus = http.StatusUnprocessableEntity
		api.createBody = map[string]string{"error": "no unpaid revenue", "code": "no_eligible_records"}
		srv := httptest.NewServer(api.mux)
		defer srv.Close()

		s := NewScheduler(NewClient(srv.URL, 5*time.Second), nil, time.Hour, "admin@trooc.io", "settle-me")
		require.NoError(t, s.runSettlement(context.Background()))
		assert.Equal(t, 0, api.processCalls)
	})

	t.Run("login failure aborts the run", func(t *testing.T) {
		api := newFakeAPI()
		srv := httptest.NewServer(api.mux)
		defer srv.Close()

		s := NewScheduler(NewClient(srv.URL, 5*time.Second), nil, time.Hour, "admin@trooc.io", "wrong")
		assert.Error(t, s.runSettlement(context.Background()))
		assert.Equal(t, 0, api.createCalls)
	})
}

func TestTickWithoutLocker(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api.mux)
	defer srv.Close()

	s := NewScheduler(NewClient(srv.URL, 5*time.Second), nil, time.Hour, "admin@trooc.io", "settle-me")
	s.tick(context.Background())

	assert.Equal(t, 1, api.processCalls)
}
