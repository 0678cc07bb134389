package services

import (
    "strings"
    "testing"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

func TestRedactMetric_MasksCommonPatternsAndDropsAssignee(t *testing.T) {
    closed := time.Now()
    m := domain.CycleTimeMetric{
        IssueNumber: 42,
        Title:       "Contact alice@example.com about https://internal.example.com/runbook",
        State:       "closed",
        CreatedAt:   closed.AddDate(0, 0, -5),
        ClosedAt:    &closed,
        Assignee:    "alice",
        Notes:       []string{"token: abcdEFGH1234 leaked in description"},
    }
    red := redactMetric(m)

    title, _ := red["title"].(string)
    if strings.Contains(title, "alice@example.com") { t.Fatalf("email not masked: %s", title) }
    if strings.Contains(title, "https://") { t.Fatalf("url not masked: %s", title) }
    if !strings.Contains(title, "<email>") || !strings.Contains(title, "<url>") {
        t.Fatalf("expected placeholders in title: %s", title)
    }

    notes, _ := red["notes"].([]string)
    if len(notes) != 1 || strings.Contains(notes[0], "abcdEFGH1234") {
        t.Fatalf("secret not masked: %#v", notes)
    }

    if _, ok := red["assignee"]; ok { t.Fatal("assignee must not be in the outbound payload") }
}

func TestRedactMetric_KeepsTimingFields(t *testing.T) {
    started := time.Now().AddDate(0, 0, -3)
    cycle := 3.0
    m := domain.CycleTimeMetric{
        IssueNumber:     7,
        Title:           "plain title",
        CreatedAt:       time.Now().AddDate(0, 0, -10),
        WorkStartedAt:   &started,
        WorkStartSource: domain.SourceAssignment,
        CycleTimeDays:   &cycle,
    }
    red := redactMetric(m)
    if red["work_start_source"] != "assignment" { t.Fatalf("source lost: %#v", red) }
    if _, ok := red["cycle_time_days"]; !ok { t.Fatal("cycle time lost") }
    if _, ok := red["lead_time_days"]; ok { t.Fatal("absent lead time should be omitted, not zeroed") }
}
