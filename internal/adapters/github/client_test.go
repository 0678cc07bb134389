package github

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "github.com/akalsey/github-issue-analysis/internal/config"
)

func testClient(baseURL string) *Client {
    cfg := config.Config{GitHubBaseURL: baseURL, GitHubToken: "t", HTTPTimeout: 5 * time.Second}
    return NewClient(cfg, zerolog.Nop())
}

func TestListIssuesRateLimitExhaustedReturnsError(t *testing.T) {
    hits := 0
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        hits++
        w.Header().Set("X-RateLimit-Remaining", "0")
        w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
        w.WriteHeader(http.StatusTooManyRequests)
        w.Write([]byte(`{"message":"API rate limit exceeded"}`))
    }))
    defer srv.Close()

    c := testClient(srv.URL)
    issues, err := c.ListIssues(context.Background(), "acme", "widgets", "all", time.Time{}, 1, 100)
    if err == nil {
        t.Fatalf("expected an error after exhausting retries, got nil with %d issues", len(issues))
    }
    if !strings.Contains(err.Error(), "status=429") {
        t.Fatalf("error should carry the rate-limit status: %v", err)
    }
    if hits != 3 { t.Fatalf("expected 3 attempts, got %d", hits) }
}

func TestListIssuesRetriesThenSucceeds(t *testing.T) {
    hits := 0
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        hits++
        if hits < 3 {
            w.WriteHeader(http.StatusBadGateway)
            return
        }
        w.Header().Set("Content-Type", "application/json")
        w.Write([]byte(`[{"number":5,"title":"x","state":"open","created_at":"2024-05-01T00:00:00Z"}]`))
    }))
    defer srv.Close()

    c := testClient(srv.URL)
    issues, err := c.ListIssues(context.Background(), "acme", "widgets", "all", time.Time{}, 1, 100)
    if err != nil { t.Fatalf("list issues: %v", err) }
    if len(issues) != 1 || issues[0].Number != 5 { t.Fatalf("unexpected issues: %#v", issues) }
    if hits != 3 { t.Fatalf("expected 2 failures then success, got %d hits", hits) }
}

func TestListIssuesClientErrorDoesNotRetry(t *testing.T) {
    hits := 0
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        hits++
        w.WriteHeader(http.StatusNotFound)
        w.Write([]byte(`{"message":"Not Found"}`))
    }))
    defer srv.Close()

    c := testClient(srv.URL)
    _, err := c.ListIssues(context.Background(), "acme", "widgets", "all", time.Time{}, 1, 100)
    if err == nil { t.Fatal("expected an error for 404") }
    if hits != 1 { t.Fatalf("4xx should not be retried, got %d hits", hits) }
}
