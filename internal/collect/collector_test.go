package collect

import (
    "context"
    "testing"
    "time"

    gh "github.com/akalsey/github-issue-analysis/internal/adapters/github"
    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/akalsey/github-issue-analysis/internal/domain"
    "github.com/rs/zerolog"
)

type stubClient struct {
    pages   [][]gh.Issue
    events  map[int][]gh.Event
    commits map[int][]time.Time
    scopes  domain.ScopeSet
}

func (s *stubClient) ListIssues(_ context.Context, _, _, _ string, _ time.Time, page, _ int) ([]gh.Issue, error) {
    if page < 1 || page > len(s.pages) { return nil, nil }
    return s.pages[page-1], nil
}

func (s *stubClient) IssueEvents(_ context.Context, _, _ string, number, page, _ int) ([]gh.Event, error) {
    if page > 1 { return nil, nil }
    return s.events[number], nil
}

func (s *stubClient) SearchCommits(_ context.Context, _, _ string, number int) ([]time.Time, error) {
    return s.commits[number], nil
}

func (s *stubClient) ProbeScopes(_ context.Context, _, _ string) domain.ScopeSet { return s.scopes }

func mkIssue(number int, title string, pr bool) gh.Issue {
    created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
    is := gh.Issue{Number: number, Title: title, State: "open", CreatedAt: &created}
    if pr { is.PullRequest = &struct{}{} }
    return is
}

func testConfig() config.Config {
    return config.Config{GitHubOwner: "acme", GitHubRepo: "widgets", WorkersFetch: 2}
}

func TestCollectFiltersPullRequests(t *testing.T) {
    stub := &stubClient{
        pages:  [][]gh.Issue{{mkIssue(1, "bug", false), mkIssue(2, "pr", true), mkIssue(3, "feature", false)}},
        scopes: domain.ScopeSet{domain.ScopeIssues: true},
    }
    c := New(stub, testConfig(), zerolog.Nop())
    recs, _, err := c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    if len(recs) != 2 { t.Fatalf("expected 2 records, got %d", len(recs)) }
    if recs[0].Number != 1 || recs[1].Number != 3 { t.Fatalf("unexpected numbers: %d, %d", recs[0].Number, recs[1].Number) }
}

func TestCollectCommitsGatedByScope(t *testing.T) {
    stub := &stubClient{
        pages:   [][]gh.Issue{{mkIssue(7, "x", false)}},
        commits: map[int][]time.Time{7: {time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}},
        scopes:  domain.ScopeSet{domain.ScopeIssues: true},
    }
    c := New(stub, testConfig(), zerolog.Nop())
    recs, _, err := c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    if recs[0].Commits.Queried { t.Fatal("commits should not be queried without the scope") }

    stub.scopes[domain.ScopeCommits] = true
    recs, _, err = c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    if !recs[0].Commits.Queried { t.Fatal("commits should be queried with the scope") }
    if len(recs[0].Commits.Timestamps) != 1 { t.Fatalf("expected 1 commit timestamp, got %d", len(recs[0].Commits.Timestamps)) }
}

func TestCollectAssignmentsChronological(t *testing.T) {
    t1 := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
    t2 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
    unassigned := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
    stub := &stubClient{
        pages: [][]gh.Issue{{mkIssue(9, "x", false)}},
        events: map[int][]gh.Event{9: {
            {Event: "assigned", CreatedAt: &t1, Assignee: &gh.User{Login: "bob"}},
            {Event: "unassigned", CreatedAt: &unassigned},
            {Event: "assigned", CreatedAt: &t2, Assignee: &gh.User{Login: "alice"}},
        }},
        scopes: domain.ScopeSet{domain.ScopeIssues: true},
    }
    c := New(stub, testConfig(), zerolog.Nop())
    recs, _, err := c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    got := recs[0].Assignments
    if len(got) != 2 { t.Fatalf("expected 2 assignments, got %d", len(got)) }
    if got[0].Assignee != "alice" || got[1].Assignee != "bob" { t.Fatalf("assignments out of order: %+v", got) }
}

func TestCollectFetchLimit(t *testing.T) {
    page := make([]gh.Issue, 0, 5)
    for i := 1; i <= 5; i++ { page = append(page, mkIssue(i, "x", false)) }
    stub := &stubClient{pages: [][]gh.Issue{page}, scopes: domain.ScopeSet{domain.ScopeIssues: true}}
    cfg := testConfig()
    cfg.FetchLimit = 3
    c := New(stub, cfg, zerolog.Nop())
    recs, _, err := c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    if len(recs) != 3 { t.Fatalf("expected fetch limit of 3, got %d records", len(recs)) }
}

func TestCollectNormalizesLabels(t *testing.T) {
    created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
    is := gh.Issue{Number: 4, Title: "t", State: "open", CreatedAt: &created,
        Labels: []gh.Label{{Name: " Type/Feature "}, {Name: "In Progress"}}}
    stub := &stubClient{pages: [][]gh.Issue{{is}}, scopes: domain.ScopeSet{domain.ScopeIssues: true}}
    c := New(stub, testConfig(), zerolog.Nop())
    recs, _, err := c.Collect(context.Background())
    if err != nil { t.Fatalf("collect: %v", err) }
    want := []string{"type/feature", "in progress"}
    for i, w := range want {
        if recs[0].Labels[i] != w { t.Fatalf("label %d: got %q want %q", i, recs[0].Labels[i], w) }
    }
}
