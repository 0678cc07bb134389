/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package analysis

import (
    "strings"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// progressLabels mark work as underway. The issue record carries no
// per-label timestamp, so a match anchors the weakest signal to the
// issue's creation time.
var progressLabels = map[string]struct{}{
    "in progress": {},
    "in-progress": {},
    "started":     {},
    "working":     {},
}

// Extract produces the candidate work-start signals for one issue.
// Pure function of its input; an unavailable or empty source simply
// contributes no signal.
func Extract(issue domain.IssueRecord) []domain.WorkStartSignal {
    var out []domain.WorkStartSignal

    if refs := issue.Commits; refs.Queried && len(refs.Timestamps) > 0 {
        earliest := refs.Timestamps[0]
        for _, t := range refs.Timestamps[1:] {
            if t.Before(earliest) { earliest = t }
        }
        out = append(out, domain.WorkStartSignal{Source: domain.SourceCommit, At: earliest, Rank: domain.RankCommit})
    }

    // First assignment, not the most recent: reassignments do not reset the clock.
    if len(issue.Assignments) > 0 {
        out = append(out, domain.WorkStartSignal{Source: domain.SourceAssignment, At: issue.Assignments[0].At, Rank: domain.RankAssignment})
    }

    for _, l := range issue.Labels {
        if _, ok := progressLabels[strings.ToLower(strings.TrimSpace(l))]; ok {
            out = append(out, domain.WorkStartSignal{Source: domain.SourceLabel, At: issue.CreatedAt, Rank: domain.RankLabel})
            break
        }
    }
    return out
}
