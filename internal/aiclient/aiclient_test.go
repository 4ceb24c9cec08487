package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newGenerationServer(t *testing.T, chunks []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`,
				"echo:"+req.Messages[len(req.Messages)-1].Content)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestAIClient_Complete(t *testing.T) {
	srv := newGenerationServer(t, nil)
	defer srv.Close()

	c := NewAIClient(srv.URL, "key", "test-model", nil)
	out, err := c.Complete(context.Background(), []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
}

func TestAIClient_Stream(t *testing.T) {
	srv := newGenerationServer(t, []string{"Hel", "lo", " world"})
	defer srv.Close()

	c := NewAIClient(srv.URL+"/", "key", "test-model", nil)
	var got []string
	out, err := c.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
}

func TestAIClient_StreamAbortedByCallback(t *testing.T) {
	srv := newGenerationServer(t, []string{"a", "b", "c"})
	defer srv.Close()

	stop := errors.New("stop")
	out, err := NewAIClient(srv.URL, "key", "test-model", nil).Stream(context.Background(), nil, func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, "a", out)
}

func TestAIClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewAIClient(srv.URL, "key", "test-model", nil).Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.Error(t, err)
}
