package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		baseURL: srv.URL,
		apiKey:  "test-key",
		model:   "test-model",
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func TestCreateVectorStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/vector_stores", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "Session Documents - clients/alice", payload["name"])

		json.NewEncoder(w).Encode(map[string]string{"id": "vs_abc123"})
	}))
	defer srv.Close()

	id, err := testClient(srv).CreateVectorStore(context.Background(), "Session Documents - clients/alice")
	require.NoError(t, err)
	require.Equal(t, "vs_abc123", id)
}

func TestDeleteVectorStore_GoneIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Destruction retries must treat an already-deleted store as done.
	err := testClient(srv).DeleteVectorStore(context.Background(), "vs_gone")
	require.NoError(t, err)
}

func TestDeleteVectorStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "boom", "type": "server_error"},
		})
	}))
	defer srv.Close()

	err := testClient(srv).DeleteVectorStore(context.Background(), "vs_x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestRespond_FileSearchGrounding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/responses", r.URL.Path)

		var payload struct {
			Model string `json:"model"`
			Input []Turn `json:"input"`
			Tools []struct {
				Type           string   `json:"type"`
				VectorStoreIDs []string `json:"vector_store_ids"`
			} `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "test-model", payload.Model)
		require.Len(t, payload.Tools, 1)
		require.Equal(t, "file_search", payload.Tools[0].Type)
		require.Equal(t, []string{"vs_1"}, payload.Tools[0].VectorStoreIDs)

		// system + 2 history turns + user input
		require.Len(t, payload.Input, 4)
		require.Equal(t, "system", payload.Input[0].Role)
		require.Equal(t, "user", payload.Input[3].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"output_text": "The client sleeps poorly.",
			"usage":       map[string]int{"total_tokens": 77},
		})
	}))
	defer srv.Close()

	history := []Turn{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	text, tokens, err := testClient(srv).Respond(context.Background(),
		"system prompt", history, "How does the client sleep?", "vs_1")
	require.NoError(t, err)
	require.Equal(t, "The client sleeps poorly.", text)
	require.Equal(t, 77, tokens)
}

func TestRespond_OutputArrayFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{{
				"content": []map[string]string{
					{"type": "output_text", "text": "part one "},
					{"type": "output_text", "text": "part two"},
				},
			}},
			"usage": map[string]int{"total_tokens": 5},
		})
	}))
	defer srv.Close()

	text, tokens, err := testClient(srv).Respond(context.Background(), "", nil, "q", "")
	require.NoError(t, err)
	require.Equal(t, "part one part two", text)
	require.Equal(t, 5, tokens)
}

func TestRespond_EmptyOutputIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"usage": map[string]int{"total_tokens": 0}})
	}))
	defer srv.Close()

	_, _, err := testClient(srv).Respond(context.Background(), "", nil, "q", "")
	require.Error(t, err)
}
