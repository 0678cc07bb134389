package analysis

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

func ts(s string) time.Time {
    t, err := time.Parse(time.RFC3339, s)
    if err != nil { panic(err) }
    return t
}

func tp(s string) *time.Time {
    t := ts(s)
    return &t
}

func TestExtractCommitSignalUsesEarliestCommit(t *testing.T) {
    issue := domain.IssueRecord{
        Number:    10,
        CreatedAt: ts("2024-03-01T00:00:00Z"),
        Commits: domain.CommitRefs{
            Queried:    true,
            Timestamps: []time.Time{ts("2024-03-05T12:00:00Z"), ts("2024-03-03T08:00:00Z"), ts("2024-03-09T16:00:00Z")},
        },
    }
    sigs := Extract(issue)
    require.Len(t, sigs, 1)
    assert.Equal(t, domain.SourceCommit, sigs[0].Source)
    assert.Equal(t, domain.RankCommit, sigs[0].Rank)
    assert.Equal(t, ts("2024-03-03T08:00:00Z"), sigs[0].At)
}

func TestExtractAssignmentSignalUsesFirstAssignment(t *testing.T) {
    issue := domain.IssueRecord{
        Number:    11,
        CreatedAt: ts("2024-03-01T00:00:00Z"),
        Assignments: []domain.AssignmentEvent{
            {Assignee: "ana", At: ts("2024-03-02T09:00:00Z")},
            {Assignee: "bo", At: ts("2024-03-06T09:00:00Z")},
        },
    }
    sigs := Extract(issue)
    require.Len(t, sigs, 1)
    assert.Equal(t, domain.SourceAssignment, sigs[0].Source)
    assert.Equal(t, ts("2024-03-02T09:00:00Z"), sigs[0].At, "reassignment must not reset work start")
}

func TestExtractLabelSignalAnchorsToCreation(t *testing.T) {
    for _, label := range []string{"in progress", "in-progress", "started", "working", "In Progress"} {
        issue := domain.IssueRecord{
            Number:    12,
            CreatedAt: ts("2024-02-01T00:00:00Z"),
            Labels:    []string{"type/feature", label},
        }
        sigs := Extract(issue)
        require.Len(t, sigs, 1, "label %q", label)
        assert.Equal(t, domain.SourceLabel, sigs[0].Source)
        assert.Equal(t, issue.CreatedAt, sigs[0].At, "label %q must proxy to created_at", label)
    }
}

func TestExtractNonProgressLabelsEmitNothing(t *testing.T) {
    issue := domain.IssueRecord{
        Number:    13,
        CreatedAt: ts("2024-02-01T00:00:00Z"),
        Labels:    []string{"type/bug", "p1", "product/voice"},
    }
    assert.Empty(t, Extract(issue))
}

func TestExtractCommitSourceUnqueriedVsEmpty(t *testing.T) {
    base := domain.IssueRecord{Number: 14, CreatedAt: ts("2024-04-01T00:00:00Z")}

    unqueried := base
    unqueried.Commits = domain.CommitRefs{Queried: false}
    assert.Empty(t, Extract(unqueried), "unreachable source contributes no signal")

    empty := base
    empty.Commits = domain.CommitRefs{Queried: true, Timestamps: nil}
    assert.Empty(t, Extract(empty), "reachable-but-empty source contributes no signal")
}

func TestExtractAllSourcesPresent(t *testing.T) {
    issue := domain.IssueRecord{
        Number:      15,
        CreatedAt:   ts("2024-05-01T00:00:00Z"),
        Labels:      []string{"working"},
        Assignments: []domain.AssignmentEvent{{Assignee: "ana", At: ts("2024-05-02T00:00:00Z")}},
        Commits:     domain.CommitRefs{Queried: true, Timestamps: []time.Time{ts("2024-05-03T00:00:00Z")}},
    }
    sigs := Extract(issue)
    require.Len(t, sigs, 3)
    seen := map[domain.Source]bool{}
    for _, s := range sigs { seen[s.Source] = true }
    assert.True(t, seen[domain.SourceCommit] && seen[domain.SourceAssignment] && seen[domain.SourceLabel])
}
