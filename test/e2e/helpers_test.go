//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// EnvServerURL points the suite at a running server.
const EnvServerURL = "E2E_SERVER_URL"

// Default configuration values.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultTimeout   = 15 * time.Second
)

// e2eServerURL returns the base URL of the server under test.
func e2eServerURL() string {
	if val := os.Getenv(EnvServerURL); val != "" {
		return val
	}
	return DefaultServerURL
}

// skipIfServerUnavailable skips the test when nothing answers /health.
func skipIfServerUnavailable(t *testing.T) {
	t.Helper()

	base := e2eServerURL()
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(base + "/health")
	if err != nil {
		t.Skipf("Server unavailable at %s: %v", base, err)
	}
	resp.Body.Close()
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// item mirrors the catalog item wire format.
type item struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	IsAvailable bool     `json:"is_available"`
	Category    string   `json:"category"`
	ImageURL    *string  `json:"image_url"`
	CreatedAt   string   `json:"created_at"`
	StockCount  int      `json:"stock_count"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags"`
}

// doRequest performs a JSON request and returns the status code and body.
func doRequest(t *testing.T, client *http.Client, method, url string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp.StatusCode, respBody
}

// decodeJSON unmarshals body into T, failing the test on error.
func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("Failed to parse response %s: %v", body, err)
	}
	return out
}

// createItem creates an item and returns it, failing the test on error.
func createItem(t *testing.T, client *http.Client, base string, payload map[string]any) item {
	t.Helper()

	status, body := doRequest(t, client, http.MethodPost, base+"/items", payload)
	if status != http.StatusOK {
		t.Fatalf("createItem: expected 200, got %d. Body: %s", status, body)
	}

	return decodeJSON[item](t, body)
}

// deleteItem removes an item during cleanup.
func deleteItem(t *testing.T, client *http.Client, base string, id int) {
	t.Helper()

	status, body := doRequest(t, client, http.MethodDelete, fmt.Sprintf("%s/items/%d", base, id), nil)
	if status != http.StatusOK && status != http.StatusNotFound {
		t.Logf("deleteItem cleanup: expected 200, got %d. Body: %s", status, body)
	}
}
