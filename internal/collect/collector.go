/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */

// Package collect turns the raw GitHub REST surface into normalized
// issue records ready for analysis. It owns pagination, pull-request
// filtering, per-issue enrichment (events, referencing commits) and the
// scope probing that decides which sources are queried at all.
package collect

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    gh "github.com/akalsey/github-issue-analysis/internal/adapters/github"
    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/akalsey/github-issue-analysis/internal/domain"
    "github.com/rs/zerolog"
)

// GitHubClient is the slice of the REST client the collector needs.
type GitHubClient interface {
    ListIssues(ctx context.Context, owner, repo, state string, since time.Time, page, perPage int) ([]gh.Issue, error)
    IssueEvents(ctx context.Context, owner, repo string, number, page, perPage int) ([]gh.Event, error)
    SearchCommits(ctx context.Context, owner, repo string, number int) ([]time.Time, error)
    ProbeScopes(ctx context.Context, owner, repo string) domain.ScopeSet
}

type Collector struct {
    gh  GitHubClient
    cfg config.Config
    log zerolog.Logger
}

func New(gh GitHubClient, cfg config.Config, log zerolog.Logger) *Collector {
    return &Collector{gh: gh, cfg: cfg, log: log}
}

const perPage = 100

// Collect fetches the issue window and enriches every issue concurrently.
// Pull requests are dropped. The returned ScopeSet reflects what this run
// could actually query.
func (c *Collector) Collect(ctx context.Context) ([]domain.IssueRecord, domain.ScopeSet, error) {
    owner, repo := c.cfg.GitHubOwner, c.cfg.GitHubRepo
    scopes := c.gh.ProbeScopes(ctx, owner, repo)
    var since time.Time
    if c.cfg.SyncSinceDays > 0 {
        since = time.Now().UTC().AddDate(0, 0, -c.cfg.SyncSinceDays)
    }

    var records []domain.IssueRecord
    var mu sync.Mutex
    workerCount := c.cfg.WorkersFetch
    if workerCount <= 0 { workerCount = 6 }

    page := 1
    total := 0
    for {
        issues, err := c.gh.ListIssues(ctx, owner, repo, c.cfg.IssueState, since, page, perPage)
        if err != nil { return nil, scopes, err }
        if len(issues) == 0 { break }

        // bounded worker pool per page
        jobs := make(chan gh.Issue)
        var wg sync.WaitGroup
        for w := 0; w < workerCount; w++ {
            wg.Add(1)
            go func(){
                defer wg.Done()
                for is := range jobs {
                    rec := c.buildRecord(ctx, owner, repo, is, scopes)
                    mu.Lock()
                    records = append(records, rec)
                    mu.Unlock()
                }
            }()
        }
        stop := false
        for _, is := range issues {
            if is.PullRequest != nil { continue } // the issues endpoint also returns PRs
            jobs <- is
            total++
            if c.cfg.FetchLimit > 0 && total >= c.cfg.FetchLimit { stop = true; break }
        }
        close(jobs)
        wg.Wait()
        if stop || len(issues) < perPage { break }
        page++
    }

    sort.Slice(records, func(i, j int) bool { return records[i].Number < records[j].Number })
    c.log.Info().Int("issues", len(records)).Msg("collection complete")
    return records, scopes, nil
}

func (c *Collector) buildRecord(ctx context.Context, owner, repo string, is gh.Issue, scopes domain.ScopeSet) domain.IssueRecord {
    rec := domain.IssueRecord{
        Number: is.Number,
        Title:  is.Title,
        State:  is.State,
        Scopes: scopes,
    }
    if is.CreatedAt != nil { rec.CreatedAt = is.CreatedAt.UTC() }
    if is.ClosedAt != nil { t := is.ClosedAt.UTC(); rec.ClosedAt = &t }
    for _, l := range is.Labels {
        if n := strings.ToLower(strings.TrimSpace(l.Name)); n != "" { rec.Labels = append(rec.Labels, n) }
    }
    if is.Assignee != nil { rec.Assignee = is.Assignee.Login }
    if is.Milestone != nil { rec.Milestone = is.Milestone.Title }

    rec.Assignments = c.assignments(ctx, owner, repo, is.Number)
    rec.Commits = c.commits(ctx, owner, repo, is.Number, scopes)
    return rec
}

// assignments walks the event stream and keeps "assigned" entries in
// chronological order. A failed events fetch degrades to no assignment
// signal for this issue; it does not fail the run.
func (c *Collector) assignments(ctx context.Context, owner, repo string, number int) []domain.AssignmentEvent {
    var out []domain.AssignmentEvent
    page := 1
    for {
        events, err := c.gh.IssueEvents(ctx, owner, repo, number, page, perPage)
        if err != nil {
            c.log.Warn().Err(err).Int("issue", number).Msg("events fetch failed, assignment signals skipped")
            return nil
        }
        for _, ev := range events {
            if ev.Event != "assigned" || ev.CreatedAt == nil { continue }
            ae := domain.AssignmentEvent{At: ev.CreatedAt.UTC()}
            if ev.Assignee != nil { ae.Assignee = ev.Assignee.Login }
            out = append(out, ae)
        }
        if len(events) < perPage { break }
        page++
    }
    sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
    return out
}

func (c *Collector) commits(ctx context.Context, owner, repo string, number int, scopes domain.ScopeSet) domain.CommitRefs {
    if !scopes.Has(domain.ScopeCommits) {
        return domain.CommitRefs{Queried: false}
    }
    times, err := c.gh.SearchCommits(ctx, owner, repo, number)
    if err != nil {
        c.log.Warn().Err(err).Int("issue", number).Msg("commit search failed, commit signals skipped")
        return domain.CommitRefs{Queried: false}
    }
    return domain.CommitRefs{Queried: true, Timestamps: times}
}
