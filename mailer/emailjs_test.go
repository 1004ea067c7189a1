package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailJSSend(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	m := NewEmailJS(Config{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "priv", Endpoint: server.URL}, server.Client())
	err := m.Send(context.Background(), Message{ToEmail: "alice@example.com", ToName: "Alice", Subject: "Bonjour", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "tpl", got.TemplateID)
	assert.Equal(t, "pub", got.UserID)
	assert.Equal(t, "priv", got.AccessToken)
	assert.Equal(t, "alice@example.com", got.TemplateParams["to_email"])
	assert.Equal(t, "<p>hi</p>", got.TemplateParams["message"])
}

func TestEmailJSSendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("The template ID is invalid"))
	}))
	defer server.Close()

	m := NewEmailJS(Config{ServiceID: "svc", TemplateID: "bad", PublicKey: "pub", Endpoint: server.URL}, server.Client())
	err := m.Send(context.Background(), Message{ToEmail: "a@b.c"})

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
	assert.Contains(t, sendErr.Body, "template ID")
}

func TestEmailJSRequiresConfig(t *testing.T) {
	err := NewEmailJS(Config{}, nil).Send(context.Background(), Message{ToEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
