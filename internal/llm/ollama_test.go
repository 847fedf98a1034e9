package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusroom/internal/types"
)

func TestChatSendsLayeredMessages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "hi there"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1:8b", WithTemperature(0.5))
	history := []types.Exchange{
		{Role: types.RoleUser, Content: "earlier question"},
		{Role: types.RoleAssistant, Content: "earlier answer"},
	}

	out, err := c.Chat(context.Background(), "you are Lena", history, "what now?")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "you are Lena", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "what now?", got.Messages[3].Content)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.5, got.Options.Temperature)
}

func TestChatServerErrorIsInferenceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1:8b")
	_, err := c.Chat(context.Background(), "", nil, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInferenceUnavailable))
}

func TestChatUnreachableHostIsInferenceUnavailable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", "llama3.1:8b")
	_, err := c.Chat(context.Background(), "", nil, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInferenceUnavailable))
}

func TestChatVisionAttachesImages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "{}"}, Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "qwen3-vl:235b-cloud", WithAPIKey("sk-test"))
	_, err := c.ChatVision(context.Background(), "describe this ad", []string{"aGVsbG8="})
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	assert.Equal(t, []string{"aGVsbG8="}, got.Messages[0].Images)
}
