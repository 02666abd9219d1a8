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

func TestResendMailer(t *testing.T) {
	var got ResendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Subject == "fail" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"bad sender"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"e1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer(map[string]string{"RESEND_API_KEY": "key", "RESEND_FROM_EMAIL": "Hub <hub@x.io>"})
	require.NotNil(t, m)
	m.endpoint = srv.URL
	m.client = srv.Client()

	require.NoError(t, m.Send(context.Background(), "hi", "<p>x</p>", []string{"a@x.io"}))
	assert.Equal(t, "Hub <hub@x.io>", got.From)
	assert.Equal(t, []string{"a@x.io"}, got.To)

	err := m.Send(context.Background(), "fail", "", []string{"a@x.io"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad sender")

	assert.Error(t, m.Send(context.Background(), "hi", "", nil))
	assert.Nil(t, NewResendMailer(map[string]string{}))
}
