package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessengerClientSendText(t *testing.T) {
	t.Parallel()

	var got sendRequest
	var gotToken, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"recipient_id":"42","message_id":"m_1"}`))
	}))
	defer server.Close()

	client := NewMessengerClient(server.URL+"/", "page-token", NewRateLimiter(10), server.Client())
	err := client.SendText(context.Background(), "42", "أهلاً بيك!")
	require.NoError(t, err)

	assert.Equal(t, "/me/messages", gotPath)
	assert.Equal(t, "page-token", gotToken)
	assert.Equal(t, "42", got.Recipient.ID)
	assert.Equal(t, "أهلاً بيك!", got.Message.Text)
	assert.Equal(t, "RESPONSE", got.MessagingType)
}

func TestMessengerClientErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token."}}`))
	}))
	defer server.Close()

	client := NewMessengerClient(server.URL, "bad-token", nil, server.Client())
	err := client.SendText(context.Background(), "42", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestMessengerClientDisabled(t *testing.T) {
	t.Parallel()

	client := NewMessengerClient("https://graph.facebook.com/v18.0", "", nil, nil)
	assert.False(t, client.Enabled())
	assert.ErrorIs(t, client.SendText(context.Background(), "42", "hi"), ErrMessengerDisabled)

	var nilClient *MessengerClient
	assert.False(t, nilClient.Enabled())
}
