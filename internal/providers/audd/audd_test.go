package audd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracklist/internal/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		APIToken: "token",
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
	})
}

func TestIdentifySuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		if got, want := r.FormValue("api_token"), "token"; got != want {
			t.Errorf("api_token %q, want %q", got, want)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}

		w.Write([]byte(`{
			"status": "success",
			"result": {"artist": "deadmau5", "title": "Strobe", "album": "For Lack of a Better Name"}
		}`))
	})

	result, err := client.Identify(context.Background(), []byte("wav"), 300)
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("expected success")
	}
	if result.Artist != "deadmau5" || result.Title != "Strobe" {
		t.Fatalf("unexpected result: %+v", result)
	}
	// Scoreless matches carry the documented default confidence.
	if got, want := result.Confidence, 0.8; got != want {
		t.Errorf("confidence %v, want %v", got, want)
	}
	if got, want := result.Offset, 300.0; got != want {
		t.Errorf("offset %v, want %v", got, want)
	}
}

func TestIdentifyUsesReportedScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"result": {"artist": "Daft Punk", "title": "One More Time", "score": 95}
		}`))
	})

	result, err := client.Identify(context.Background(), []byte("wav"), 0)
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if got, want := result.Confidence, 0.95; got != want {
		t.Fatalf("confidence %v, want %v", got, want)
	}
}

func TestIdentifyNullResultIsNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "result": null}`))
	})

	result, err := client.Identify(context.Background(), []byte("wav"), 0)
	if err != nil {
		t.Fatalf("no-match must not be an error, got: %v", err)
	}
	if result.Succeeded {
		t.Fatalf("null result reported success: %+v", result)
	}
}

func TestIdentifyErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantKind providers.ErrorKind
	}{
		{"http unauthorized", http.StatusUnauthorized, "", providers.KindAuthFailed},
		{"http rate limited", http.StatusTooManyRequests, "", providers.KindRateLimited},
		{"http bad request", http.StatusBadRequest, "", providers.KindBadRequest},
		{"http server error", http.StatusBadGateway, "", providers.KindUnknown},
		{"api wrong token", http.StatusOK, `{"status": "error", "error": {"error_code": 900, "error_message": "wrong token"}}`, providers.KindAuthFailed},
		{"api limit reached", http.StatusOK, `{"status": "error", "error": {"error_code": 901, "error_message": "limit"}}`, providers.KindRateLimited},
		{"api other error", http.StatusOK, `{"status": "error", "error": {"error_code": 500, "error_message": "boom"}}`, providers.KindUnknown},
		{"garbage body", http.StatusOK, "<html>", providers.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if tc.body != "" {
					w.Write([]byte(tc.body))
				}
			})

			_, err := client.Identify(context.Background(), []byte("wav"), 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := providers.KindOf(err); got != tc.wantKind {
				t.Fatalf("kind %q, want %q", got, tc.wantKind)
			}
		})
	}
}

func TestIdentifyRetryAfterHint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Identify(context.Background(), []byte("wav"), 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := providers.RetryAfterOf(err), 12*time.Second; got != want {
		t.Fatalf("retry-after %v, want %v", got, want)
	}
}
