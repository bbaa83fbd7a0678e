package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a@example.com", payload["to"])
		assert.Equal(t, "Welcome", payload["subject"])

		_, _ = w.Write([]byte(`{"message_id": "msg-9"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")

	messageID, err := client.SendEmail(context.Background(), "a@example.com", "Welcome", "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg-9", messageID)
}

func TestApplyTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers/cust-1/tags", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "vip", payload["tag"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	require.NoError(t, client.ApplyTag(context.Background(), "cust-1", "vip"))
}

func TestUpdateRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/ord-1", r.URL.Path)
		// No token configured, no auth header sent.
		assert.Empty(t, r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "fulfilled", payload["status"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	err := client.UpdateRecord(context.Background(), "orders", "ord-1", map[string]any{"status": "fulfilled"})
	require.NoError(t, err)
}

func TestErrorResponseIncludesSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	err := client.ApplyTag(context.Background(), "cust-1", "vip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream broke")
}
