package clinicorp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPProxyClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %s", ct)
		}
		var envelope ProxyRequest
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if envelope.Path != "/appointments/list" || envelope.Credentials.SubscriberID != "sub-1" {
			t.Fatalf("unexpected envelope %+v", envelope)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"ok": 1}}`))
	}))
	defer server.Close()

	client := NewHTTPProxyClient(server.URL, server.Client())
	resp, err := client.Do(context.Background(), ProxyRequest{
		Path:        "/appointments/list",
		Method:      http.MethodGet,
		ClinicID:    "clinic-1",
		Credentials: ProxyCredentials{SubscriberID: "sub-1", AccessToken: "tok-1"},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !resp.Success || string(resp.Data) != `{"ok": 1}` {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPProxyClientUnhappyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": false, "error": "subscriber suspended"}`))
	}))
	defer server.Close()

	client := NewHTTPProxyClient(server.URL, server.Client())
	resp, err := client.Do(context.Background(), ProxyRequest{Path: "/x"})
	if err != nil {
		t.Fatalf("unhappy envelopes are not transport errors: %v", err)
	}
	if resp.Success || resp.Error != "subscriber suspended" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPProxyClientNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	client := NewHTTPProxyClient(server.URL, server.Client())
	_, err := client.Do(context.Background(), ProxyRequest{Path: "/x"})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error should carry the status: %v", err)
	}
	if len(err.Error()) > 400 {
		t.Fatalf("error body should be truncated, got %d chars", len(err.Error()))
	}
}

func TestHTTPProxyClientMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPProxyClient(server.URL, server.Client())
	if _, err := client.Do(context.Background(), ProxyRequest{Path: "/x"}); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestFailureErrorsIs(t *testing.T) {
	err := newFailure(KindUpstreamTimeout, "deadline", context.DeadlineExceeded)
	if FailureKindOf(err) != KindUpstreamTimeout {
		t.Fatalf("kind lost: %v", err)
	}
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatal("errors.As should find Failure")
	}
	if f.Unwrap() != context.DeadlineExceeded {
		t.Fatalf("cause lost: %v", f.Unwrap())
	}
}
