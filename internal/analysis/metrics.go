/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package analysis

import (
    "errors"
    "fmt"
    "sync"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// ErrMalformedRecord marks an issue record missing its required fields
// (number, created_at). It aborts that single issue, never the batch.
var ErrMalformedRecord = errors.New("analysis: malformed issue record")

const hoursPerDay = 24.0

// Options tunes the analyzer.
type Options struct {
    // ClampNegative drops a negative derived duration and records a
    // data-quality note instead of reporting the raw value. The label
    // signal anchors to creation time, so a reopened-then-relabeled
    // issue can place work start after closure.
    ClampNegative bool
    // Workers bounds batch fan-out. Issues share no state, so the only
    // coordination is collecting results.
    Workers int
}

type Analyzer struct {
    opts Options
}

func New(opts Options) *Analyzer {
    if opts.Workers <= 0 { opts.Workers = 4 }
    return &Analyzer{opts: opts}
}

// AnalyzeIssue runs the full extract/resolve/compute chain for one issue.
func (a *Analyzer) AnalyzeIssue(issue domain.IssueRecord) (domain.CycleTimeMetric, error) {
    if issue.Number <= 0 || issue.CreatedAt.IsZero() {
        return domain.CycleTimeMetric{}, fmt.Errorf("%w: number=%d", ErrMalformedRecord, issue.Number)
    }
    at, src, ok := Resolve(Extract(issue))
    m := domain.CycleTimeMetric{
        IssueNumber: issue.Number,
        Title:       issue.Title,
        State:       issue.State,
        CreatedAt:   issue.CreatedAt,
        ClosedAt:    issue.ClosedAt,
        Labels:      issue.Labels,
        Assignee:    issue.Assignee,
    }
    if ok {
        t := at
        m.WorkStartedAt = &t
        m.WorkStartSource = src
    }
    if issue.ClosedAt == nil { return m, nil }

    lead := issue.ClosedAt.Sub(issue.CreatedAt).Hours() / hoursPerDay
    if lead < 0 && a.opts.ClampNegative {
        m.Notes = append(m.Notes, fmt.Sprintf("issue #%d closed before creation; lead time dropped", issue.Number))
    } else {
        m.LeadTimeDays = &lead
    }
    if ok {
        cycle := issue.ClosedAt.Sub(at).Hours() / hoursPerDay
        if cycle < 0 && a.opts.ClampNegative {
            m.Notes = append(m.Notes, fmt.Sprintf("issue #%d work start (%s) dated after closure; cycle time dropped", issue.Number, src))
        } else {
            m.CycleTimeDays = &cycle
        }
    }
    return m, nil
}

// BatchResult is one analysis pass over a set of issue records.
type BatchResult struct {
    Metrics []domain.CycleTimeMetric
    Skipped int      // malformed records dropped from the batch
    Notes   []string // batch-level data-quality notes
}

// AnalyzeBatch analyzes every record, in input order. Malformed records
// are skipped and counted; the batch always completes.
func (a *Analyzer) AnalyzeBatch(issues []domain.IssueRecord) BatchResult {
    type slot struct {
        metric domain.CycleTimeMetric
        err    error
    }
    slots := make([]slot, len(issues))

    jobs := make(chan int)
    var wg sync.WaitGroup
    for w := 0; w < a.opts.Workers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := range jobs {
                m, err := a.AnalyzeIssue(issues[i])
                slots[i] = slot{metric: m, err: err}
            }
        }()
    }
    for i := range issues { jobs <- i }
    close(jobs)
    wg.Wait()

    res := BatchResult{Metrics: make([]domain.CycleTimeMetric, 0, len(issues))}
    for i, s := range slots {
        if s.err != nil {
            res.Skipped++
            res.Notes = append(res.Notes, fmt.Sprintf("record %d skipped: %v", i, s.err))
            continue
        }
        res.Metrics = append(res.Metrics, s.metric)
    }
    return res
}
