/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "regexp"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

var (
    emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
    phoneRe = regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\b`)
    urlRe   = regexp.MustCompile(`https?://[^\s]+`)
    tokenRe = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer|ghp_|github_pat_)[:=\s]*[A-Za-z0-9\-\._~+/]{8,}\b`)
)

func scrub(s string) string {
    s = emailRe.ReplaceAllString(s, "<email>")
    s = phoneRe.ReplaceAllString(s, "<phone>")
    s = urlRe.ReplaceAllString(s, "<url>")
    s = tokenRe.ReplaceAllString(s, "<secret>")
    return s
}

// redactMetric strips identifying and secret-looking content before a
// metric leaves the process. Assignee logins never go out; titles and
// notes are scrubbed in place.
func redactMetric(m domain.CycleTimeMetric) map[string]any {
    notes := make([]string, 0, len(m.Notes))
    for _, n := range m.Notes { notes = append(notes, scrub(n)) }
    out := map[string]any{
        "number":            m.IssueNumber,
        "title":             scrub(m.Title),
        "state":             m.State,
        "created_at":        m.CreatedAt,
        "labels":            m.Labels,
        "work_start_source": string(m.WorkStartSource),
        "notes":             notes,
    }
    if m.ClosedAt != nil { out["closed_at"] = *m.ClosedAt }
    if m.WorkStartedAt != nil { out["work_started_at"] = *m.WorkStartedAt }
    if m.LeadTimeDays != nil { out["lead_time_days"] = *m.LeadTimeDays }
    if m.CycleTimeDays != nil { out["cycle_time_days"] = *m.CycleTimeDays }
    return out
}
