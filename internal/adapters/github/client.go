/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package github

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/rs/zerolog"
)

type Client struct {
    baseURL string
    token   string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.GitHubBaseURL,
        token:   cfg.GitHubToken,
        http:    &http.Client{ Timeout: cfg.HTTPTimeout },
        log:     log,
    }
}

// Issue is the subset of the REST issue payload the collector consumes.
// A non-nil PullRequest marks the record as a PR, not an issue.
type Issue struct {
    Number      int        `json:"number"`
    Title       string     `json:"title"`
    State       string     `json:"state"`
    CreatedAt   *time.Time `json:"created_at"`
    ClosedAt    *time.Time `json:"closed_at"`
    Labels      []Label    `json:"labels"`
    Assignee    *User      `json:"assignee"`
    Milestone   *Milestone `json:"milestone"`
    PullRequest *struct{}  `json:"pull_request"`
}

type Label struct {
    Name string `json:"name"`
}

type User struct {
    Login string `json:"login"`
}

type Milestone struct {
    Title string `json:"title"`
}

// Event is a timeline entry from the issue events endpoint.
type Event struct {
    Event     string     `json:"event"`
    CreatedAt *time.Time `json:"created_at"`
    Assignee  *User      `json:"assignee"`
    Label     *Label     `json:"label"`
}

type commitSearchResult struct {
    Items []struct {
        Commit struct {
            Author struct {
                Date *time.Time `json:"date"`
            } `json:"author"`
            Committer struct {
                Date *time.Time `json:"date"`
            } `json:"committer"`
        } `json:"commit"`
    } `json:"items"`
}

func (c *Client) apiURL(path string, q url.Values) string {
    base := strings.TrimRight(c.baseURL, "/")
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    u := base + path
    if q != nil && len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// doJSON issues the request with up to 3 attempts, retrying 429/5xx and
// honoring X-RateLimit-Reset when the primary rate limit is exhausted.
func (c *Client) doJSON(ctx context.Context, method, u, accept string, out any) (int, error) {
    if c.baseURL == "" { return 0, errors.New("github: empty baseURL") }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        req, err := http.NewRequestWithContext(ctx, method, u, nil)
        if err != nil { return 0, err }
        req.Header.Set("Accept", accept)
        req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
        if c.token != "" { req.Header.Set("Authorization", "Bearer "+c.token) }
        resp, err := c.http.Do(req)
        if err != nil { lastErr = err } else {
            b, rerr := io.ReadAll(resp.Body)
            resp.Body.Close()
            if rerr != nil { return resp.StatusCode, rerr }
            if resp.StatusCode < 300 {
                if out != nil {
                    if err := json.Unmarshal(b, out); err != nil { return resp.StatusCode, err }
                }
                return resp.StatusCode, nil
            }
            lastErr = fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
            if rateLimited(resp) {
                if wait := untilReset(resp); wait > 0 {
                    c.log.Warn().Dur("wait", wait).Msg("github rate limit hit, sleeping until reset")
                    select {
                    case <-time.After(wait):
                    case <-ctx.Done():
                        return resp.StatusCode, ctx.Err()
                    }
                    continue
                }
            }
            if resp.StatusCode != 429 && resp.StatusCode < 500 {
                return resp.StatusCode, lastErr
            }
        }
        select {
        case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
        case <-ctx.Done():
            return 0, ctx.Err()
        }
    }
    return 0, lastErr
}

func rateLimited(resp *http.Response) bool {
    if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests { return false }
    return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func untilReset(resp *http.Response) time.Duration {
    sec, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
    if err != nil { return 0 }
    wait := time.Until(time.Unix(sec, 0)) + time.Second
    if wait < 0 { return 0 }
    // a reset far in the future usually means clock skew; cap the sleep
    if wait > 15*time.Minute { wait = 15 * time.Minute }
    return wait
}

// ListIssues fetches one page of repository issues. GitHub mixes pull
// requests into this endpoint; callers filter on PullRequest.
func (c *Client) ListIssues(ctx context.Context, owner, repo, state string, since time.Time, page, perPage int) ([]Issue, error) {
    if owner == "" || repo == "" { return nil, errors.New("github: empty owner/repo") }
    q := url.Values{}
    if state == "" { state = "all" }
    q.Set("state", state)
    q.Set("sort", "created")
    q.Set("direction", "desc")
    if !since.IsZero() { q.Set("since", since.UTC().Format(time.RFC3339)) }
    if page > 0 { q.Set("page", strconv.Itoa(page)) }
    if perPage > 0 { q.Set("per_page", strconv.Itoa(perPage)) }
    u := c.apiURL("/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo)+"/issues", q)
    var out []Issue
    if _, err := c.doJSON(ctx, http.MethodGet, u, "application/vnd.github+json", &out); err != nil { return nil, err }
    return out, nil
}

// IssueEvents fetches one page of an issue's event stream (assignments, labels).
func (c *Client) IssueEvents(ctx context.Context, owner, repo string, number, page, perPage int) ([]Event, error) {
    if number <= 0 { return nil, errors.New("github: invalid issue number") }
    q := url.Values{}
    if page > 0 { q.Set("page", strconv.Itoa(page)) }
    if perPage > 0 { q.Set("per_page", strconv.Itoa(perPage)) }
    u := c.apiURL(fmt.Sprintf("/repos/%s/%s/issues/%d/events", url.PathEscape(owner), url.PathEscape(repo), number), q)
    var out []Event
    if _, err := c.doJSON(ctx, http.MethodGet, u, "application/vnd.github+json", &out); err != nil { return nil, err }
    return out, nil
}

// SearchCommits returns author timestamps of commits whose message
// references the issue number. The commit search API requires the
// cloak-preview media type on older GHE deployments; sending it is harmless
// against github.com.
func (c *Client) SearchCommits(ctx context.Context, owner, repo string, number int) ([]time.Time, error) {
    if number <= 0 { return nil, errors.New("github: invalid issue number") }
    q := url.Values{}
    q.Set("q", fmt.Sprintf("repo:%s/%s %d", owner, repo, number))
    q.Set("sort", "author-date")
    q.Set("order", "asc")
    q.Set("per_page", "30")
    u := c.apiURL("/search/commits", q)
    var out commitSearchResult
    if _, err := c.doJSON(ctx, http.MethodGet, u, "application/vnd.github.cloak-preview+json", &out); err != nil { return nil, err }
    times := make([]time.Time, 0, len(out.Items))
    for _, it := range out.Items {
        d := it.Commit.Author.Date
        if d == nil { d = it.Commit.Committer.Date }
        if d != nil { times = append(times, d.UTC()) }
    }
    return times, nil
}
