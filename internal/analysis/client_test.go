package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enginePayload = `{
	"overview": {"rows": 2, "columns": 1, "numeric_columns": ["age"], "categorical_columns": [], "datetime_columns": []},
	"insights": ["Dataset contains 2 rows and 1 columns."],
	"preview": [{"age": 31}, {"age": 45}],
	"visualization": {"histograms": {}, "category_counts": {}},
	"advanced_visualization": {"correlation": {}, "missing_values": {}},
	"nunique": {"age": 2},
	"missing_handling_process": {},
	"value_counts": {},
	"dataset_info": ""
}`

func TestClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "data.csv", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(enginePayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.Analyze(context.Background(), "data.csv", strings.NewReader("age\n31\n45\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Overview.Rows)
	assert.Equal(t, []string{"age"}, result.Overview.NumericColumns)
}

func TestClient_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unsupported file format"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Analyze(context.Background(), "data.bin", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported file format")
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Analyze(context.Background(), "data.csv", strings.NewReader("x"))
	require.Error(t, err)
}

func TestClient_BusyGate(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(enginePayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.Analyze(context.Background(), "slow.csv", strings.NewReader("age\n1\n")) //nolint:errcheck
	}()

	// Wait for the first request to hold the gate.
	deadline := time.After(2 * time.Second)
	for {
		if len(client.gate) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first upload never acquired the gate")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err := client.Analyze(context.Background(), "second.csv", strings.NewReader("age\n2\n"))
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()

	// The gate is released on completion, so a fresh upload may proceed.
	_, err = client.Analyze(context.Background(), "third.csv", strings.NewReader("age\n3\n"))
	assert.NoError(t, err)
}

func TestClient_GateReleasedOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	for i := 0; i < 3; i++ {
		_, err := client.Analyze(context.Background(), "data.csv", strings.NewReader("x"))
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrBusy, "gate must be released on every exit path")
	}
}
