package integration

import (
	"net/http"
	"strconv"
	"testing"
)

func chatRequest(client *TestClient) *http.Response {
	return client.POST("/chat/completions", map[string]any{
		"system": "you are a test",
		"messages": []map[string]string{
			{"role": "user", "content": "hi"},
		},
	})
}

func TestRateLimiting_HeadersPresent(t *testing.T) {
	server := createTestServer(t, true)
	client := NewTestClientForServer(t, server)

	resp := chatRequest(client)
	defer resp.Body.Close()

	if resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("expected X-RateLimit-Limit header to be set")
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "" {
		t.Error("expected X-RateLimit-Remaining header to be set")
	}
}

func TestRateLimiting_DeniesAfterBucketExhausted(t *testing.T) {
	server := createTestServer(t, true)
	client := NewTestClientForServer(t, server)

	var lastStatus int
	for i := 0; i < 15; i++ {
		resp := chatRequest(client)
		lastStatus = resp.StatusCode
		if lastStatus == http.StatusTooManyRequests {
			retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			if err != nil {
				t.Fatalf("expected numeric Retry-After header, got error: %v", err)
			}
			if retryAfter <= 0 {
				t.Errorf("expected a positive Retry-After, got %d", retryAfter)
			}
			return
		}
		resp.Body.Close()
	}

	t.Fatalf("expected a 429 within 15 requests against a 10-token bucket, last status %d", lastStatus)
}

func TestRateLimiting_DisabledSkipsAdmission(t *testing.T) {
	server := createTestServer(t, false)
	client := NewTestClientForServer(t, server)

	for i := 0; i < 15; i++ {
		resp := chatRequest(client)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			t.Fatal("did not expect 429 with rate limiting disabled")
		}
		resp.Body.Close()
	}
}
