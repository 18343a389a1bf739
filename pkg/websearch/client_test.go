package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearch(t *testing.T) {
	var gotRequest struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	var gotAuth, gotPath, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []Result{
			{Title: "Weather in SF", URL: "https://example.com/sf", Content: "It is sunny in SF."},
			{URL: "https://example.com/forecast", Content: "Fog expected tonight."},
		}})
	}))
	defer server.Close()

	client := New(server.URL, "secret", 2)

	results, err := client.Search(context.Background(), "weather in sf")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s", gotMethod)
	}
	if gotPath != "/search" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotRequest.Query != "weather in sf" {
		t.Errorf("query = %q", gotRequest.Query)
	}
	if gotRequest.MaxResults != 2 {
		t.Errorf("max_results = %d", gotRequest.MaxResults)
	}

	if len(results) != 2 {
		t.Fatalf("results len = %d", len(results))
	}
	if results[0].URL != "https://example.com/sf" {
		t.Errorf("url = %s", results[0].URL)
	}
	if results[1].Content != "Fog expected tonight." {
		t.Errorf("content = %s", results[1].Content)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
			wantErr: "status 429",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			wantErr: "decoding search response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := New(server.URL, "", 1)
			_, err := client.Search(context.Background(), "anything")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	client := New("", "key", 0)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s", client.baseURL)
	}
	if client.maxResults != 1 {
		t.Errorf("maxResults = %d", client.maxResults)
	}
}
