package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// rewriteTransport redirects all requests to a test server.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.target[len("http://"):]
	return t.base.RoundTrip(req)
}

func TestPostmarkSend(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewPostmarkClient("test-token", "noreply@lab.example.edu",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	err := client.Send(context.Background(), Message{
		To:      []string{"lab@example.edu"},
		Subject: "Climatology Lab - Password Reset OTP",
		Body:    "Your OTP for password reset is: 123456",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "lab@example.edu" {
		t.Errorf("To = %q, want %q", received.To, "lab@example.edu")
	}
	if received.From != "noreply@lab.example.edu" {
		t.Errorf("From = %q, want default sender", received.From)
	}
	if received.TextBody != "Your OTP for password reset is: 123456" {
		t.Errorf("TextBody = %q", received.TextBody)
	}
}

func TestPostmarkAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewPostmarkClient("test-token", "noreply@lab.example.edu",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	if err := client.Send(context.Background(), Message{To: []string{"a@example.edu"}}); err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestPostmarkNotConfigured(t *testing.T) {
	client := NewPostmarkClient("", "noreply@lab.example.edu")

	if err := client.Send(context.Background(), Message{To: []string{"a@example.edu"}}); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
