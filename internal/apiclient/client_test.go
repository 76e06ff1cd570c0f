package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/getProducts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id": 1, "name": "Milk"}]`)
	}))
	defer srv.Close()

	var out []widget
	err := New(srv.URL+"/").Get(context.Background(), "getProducts", &out)
	require.NoError(t, err)
	assert.Equal(t, []widget{{ID: 1, Name: "Milk"}}, out)
}

func TestPostEncodings(t *testing.T) {
	payload := widget{ID: 7, Name: "Bread"}

	t.Run("json body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var got widget
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, payload, got)
			_, _ = io.WriteString(w, `{"product_id": 7}`)
		}))
		defer srv.Close()

		var out struct {
			ProductID int64 `json:"product_id"`
		}
		require.NoError(t, New(srv.URL).Post(context.Background(), "/addProduct", payload, &out))
		assert.Equal(t, int64(7), out.ProductID)
	})

	t.Run("form wrapped json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			var got widget
			require.NoError(t, json.Unmarshal([]byte(r.FormValue(FormField)), &got))
			assert.Equal(t, payload, got)
			_, _ = io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		client := New(srv.URL)
		require.NoError(t, client.Post(context.Background(), "/addProduct", payload, nil, WithEncoding(EncodingForm)))
	})

	t.Run("form default overridden per call", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		client := New(srv.URL, WithDefaultEncoding(EncodingForm))
		require.NoError(t, client.Post(context.Background(), "/api/calc/revenue", payload, nil, WithEncoding(EncodingJSON)))
	})
}

func TestNonSuccessStatusIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "Order not found"}`)
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).Get(context.Background(), "/getOrder/99", &out)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Order not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, out)
}

func TestTransportFailureIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url).Delete(context.Background(), "/deleteProduct/1", nil)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, WithMaxConcurrency(2)).Get(context.Background(), "/getOrders", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithTimeoutLeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: 5 * time.Second}

	c := New("http://api.test", WithHTTPClient(shared), WithTimeout(time.Second))
	assert.Equal(t, 5*time.Second, shared.Timeout)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)

	c = New("http://api.test", WithTimeout(0), WithHTTPClient(shared))
	assert.Zero(t, c.httpClient.Timeout)
	assert.Equal(t, 5*time.Second, shared.Timeout)

	c = New("http://api.test", WithHTTPClient(shared))
	assert.Same(t, shared, c.httpClient)
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"": EncodingJSON, "JSON": EncodingJSON, "form": EncodingForm, "form-data": EncodingForm} {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEncoding("xml")
	assert.Error(t, err)
}
