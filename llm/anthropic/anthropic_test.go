package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant-test" {
			t.Errorf("x-api-key = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"content":[{"type":"text","text":"it was the cache"}]}`))
	}))
	defer srv.Close()

	client := New("sk-ant-test", "")
	client.SetBaseURL(srv.URL)

	got, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "it was the cache" {
		t.Errorf("Complete = %q", got)
	}
	if gotBody["system"] != "system prompt" {
		t.Errorf("system = %v", gotBody["system"])
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	client := New("bad-key", "")
	client.SetBaseURL(srv.URL)

	_, err := client.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should include status code, got %v", err)
	}
}

func TestDescribeImage_SendsImageBlock(t *testing.T) {
	var gotRaw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"content":[{"type":"text","text":"a dashboard"}]}`))
	}))
	defer srv.Close()

	client := New("sk-ant-test", "")
	client.SetBaseURL(srv.URL)

	got, err := client.DescribeImage(context.Background(), "what is this", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if got != "a dashboard" {
		t.Errorf("DescribeImage = %q", got)
	}
	if !strings.Contains(string(gotRaw), `"type":"image"`) {
		t.Errorf("request should contain an image block: %s", gotRaw)
	}
	if !strings.Contains(string(gotRaw), `"media_type":"image/png"`) {
		t.Errorf("request should carry the media type: %s", gotRaw)
	}
}
