package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Client is a minimal client for the hosted language-model API: vector
// stores for retrieval, file uploads, and response generation. Only the
// endpoints this application needs are covered.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClientFromEnv reads OPENAI_API_KEY, OPENAI_BASE_URL and
// OPENAI_MODEL, with sensible defaults for the latter two.
func NewClientFromEnv() *Client {
	return &Client{
		baseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
			return fmt.Errorf("assistant api: %s (%s)", ae.Error.Message, resp.Status)
		}
		return fmt.Errorf("assistant api: %s", resp.Status)
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

var errNotFound = fmt.Errorf("assistant api: not found")

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// CreateVectorStore creates an empty vector store and returns its ID.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/vector_stores", map[string]any{"name": name}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteVectorStore deletes a vector store. A store that is already
// gone counts as success so destruction retries stay safe.
func (c *Client) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/vector_stores/"+vectorStoreID, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		if err == errNotFound {
			return nil
		}
		return err
	}
	return nil
}

// UploadFile uploads raw file content for assistant use and returns the
// file ID.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// AttachFile adds an uploaded file to a vector store.
func (c *Client) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	return c.postJSON(ctx, "/vector_stores/"+vectorStoreID+"/files", map[string]any{"file_id": fileID}, nil)
}

// Turn is one prior message of model context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Respond generates a model response grounded on the session's vector
// store via the file-search tool. It returns the output text and the
// token usage reported by the API.
func (c *Client) Respond(ctx context.Context, system string, history []Turn, input, vectorStoreID string) (string, int, error) {
	msgs := make([]Turn, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, Turn{Role: "system", Content: system})
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, Turn{Role: "user", Content: input})

	payload := map[string]any{
		"model": c.model,
		"input": msgs,
	}
	if vectorStoreID != "" {
		payload["tools"] = []map[string]any{{
			"type":             "file_search",
			"vector_store_ids": []string{vectorStoreID},
		}}
	}

	var out struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := c.postJSON(ctx, "/responses", payload, &out); err != nil {
		return "", 0, err
	}

	text := out.OutputText
	if text == "" {
		for _, item := range out.Output {
			for _, content := range item.Content {
				if content.Type == "output_text" || content.Type == "text" {
					text += content.Text
				}
			}
		}
	}
	if text == "" {
		return "", 0, fmt.Errorf("assistant api: empty response")
	}
	return text, out.Usage.TotalTokens, nil
}
