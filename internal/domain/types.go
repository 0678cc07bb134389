package domain

import "time"

// Source identifies the evidence stream behind a work-start signal.
type Source string

const (
    SourceCommit     Source = "commit"
    SourceAssignment Source = "assignment"
    SourceLabel      Source = "label"
)

// Confidence ranks; lower is more trusted. A commit is concrete dated
// evidence of effort, an assignment records intent, a label only
// approximates a start to the issue's creation time.
const (
    RankCommit     = 1
    RankAssignment = 2
    RankLabel      = 3
)

// Scope is a token permission gating a signal source.
type Scope string

const (
    ScopeIssues  Scope = "issues"
    ScopeCommits Scope = "commits"
    ScopePulls   Scope = "pull_requests"
)

// ScopeSet records which sources the collector was actually able to query.
type ScopeSet map[Scope]bool

func (s ScopeSet) Has(sc Scope) bool { return s != nil && s[sc] }

type AssignmentEvent struct {
    Assignee string
    At       time.Time
}

// CommitRefs carries the timestamps of commits referencing an issue.
// Queried distinguishes "source unreachable" (token lacked the scope)
// from "reachable but no matching commits"; both yield zero signals but
// the distinction feeds scope/completeness reporting.
type CommitRefs struct {
    Queried    bool
    Timestamps []time.Time
}

// IssueRecord is the normalized issue as produced by the collector.
// Read-only to the analysis core.
type IssueRecord struct {
    Number      int
    Title       string
    State       string // open|closed
    CreatedAt   time.Time
    ClosedAt    *time.Time
    Labels      []string // lowercase
    Assignee    string
    Milestone   string
    Assignments []AssignmentEvent // chronological
    Commits     CommitRefs
    Scopes      ScopeSet
}

// WorkStartSignal is a candidate "work began here" timestamp. Produced
// fresh per issue, never persisted.
type WorkStartSignal struct {
    Source Source
    At     time.Time
    Rank   int
}

// CycleTimeMetric is the per-issue analysis output. Nil pointer fields
// mean "not determinable", a valid terminal state rather than an error.
type CycleTimeMetric struct {
    IssueNumber     int
    Title           string
    State           string
    CreatedAt       time.Time
    ClosedAt        *time.Time
    WorkStartedAt   *time.Time
    WorkStartSource Source // empty when work start is undetermined
    LeadTimeDays    *float64
    CycleTimeDays   *float64
    Labels          []string
    Assignee        string
    Notes           []string // data-quality notes, e.g. a clamped negative duration
}

// Closed reports whether the underlying issue reached closure.
func (m CycleTimeMetric) Closed() bool { return m.ClosedAt != nil }
