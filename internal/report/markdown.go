/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */

// Package report renders analysis output as executive markdown and
// machine-readable CSV, and owns the week-boundary arithmetic both use.
package report

import (
    "fmt"
    "sort"
    "strings"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

type Markdown struct {
    Owner string
    Repo  string

    footnotes []string
}

func typeEmoji(m domain.CycleTimeMetric) string {
    labels := strings.Join(m.Labels, " ")
    title := strings.ToLower(m.Title)
    switch {
    case strings.Contains(labels, "epic"):
        return "🎯"
    case strings.Contains(labels, "type/feature"):
        return "✨"
    case strings.Contains(labels, "type/bug") || strings.Contains(title, "bug"):
        return "🐛"
    case strings.Contains(labels, "type/chore") || strings.Contains(labels, "deploy/") || strings.Contains(labels, "maintenance"):
        return "🔧"
    case strings.Contains(labels, "infrastructure") || strings.Contains(labels, "platform"):
        return "🏗️"
    case strings.Contains(labels, "compliance") || strings.Contains(labels, "security"):
        return "🔒"
    default:
        return "📋"
    }
}

func (r *Markdown) footnote(m domain.CycleTimeMetric) string {
    url := fmt.Sprintf("https://github.com/%s/%s/issues/%d", r.Owner, r.Repo, m.IssueNumber)
    title := m.Title
    if title == "" { title = "Untitled" }
    r.footnotes = append(r.footnotes, fmt.Sprintf("[^%d]: %s - %s", m.IssueNumber, url, title))
    return fmt.Sprintf("[^%d]", m.IssueNumber)
}

func fmtDays(v *float64) string {
    if v == nil { return "n/a" }
    return fmt.Sprintf("%.1fd", *v)
}

// Render produces the full executive status report. Undetermined work
// starts and missing durations render as "n/a" rather than being dropped;
// incompleteness is part of the story the report tells.
func (r *Markdown) Render(metrics []domain.CycleTimeMetric, kpis map[string]float64, aiSummary string, now time.Time) string {
    r.footnotes = r.footnotes[:0]
    var b strings.Builder

    fmt.Fprintf(&b, "# Executive Product Status Report\n\n")
    fmt.Fprintf(&b, "**Repository:** %s/%s   \n", r.Owner, r.Repo)
    fmt.Fprintf(&b, "**Report Date:** %s   \n", now.Format("January 2, 2006"))
    fmt.Fprintf(&b, "**Issues Analyzed:** %d\n\n", len(metrics))

    var completed, open, undetermined int
    for _, m := range metrics {
        if m.Closed() { completed++ } else { open++ }
        if m.WorkStartedAt == nil { undetermined++ }
    }
    b.WriteString("## 📊 **EXECUTIVE SUMMARY**\n\n")
    fmt.Fprintf(&b, "- **%d issues** closed in the analysis window\n", completed)
    fmt.Fprintf(&b, "- **%d issues** still open\n", open)
    fmt.Fprintf(&b, "- **%d issues** with no determinable work start\n\n", undetermined)

    if len(kpis) > 0 {
        b.WriteString("## 📈 **WEEKLY KPIS**\n\n")
        keys := make([]string, 0, len(kpis))
        for k := range kpis { keys = append(keys, k) }
        sort.Strings(keys)
        for _, k := range keys { fmt.Fprintf(&b, "- **%s:** %.2f\n", k, kpis[k]) }
        b.WriteString("\n")
    }

    if aiSummary != "" {
        b.WriteString("## 🤖 **AI SUMMARY**\n\n")
        b.WriteString(aiSummary)
        b.WriteString("\n\n")
    }

    b.WriteString("## ✅ **RECENTLY COMPLETED**\n\n")
    wroteAny := false
    for _, m := range metrics {
        if !IsRecentlyCompleted(m.ClosedAt, now, 7) { continue }
        wroteAny = true
        fmt.Fprintf(&b, "- %s **#%d %s**%s — lead %s, cycle %s (start: %s)\n",
            typeEmoji(m), m.IssueNumber, m.Title, r.footnote(m),
            fmtDays(m.LeadTimeDays), fmtDays(m.CycleTimeDays), sourceLabel(m.WorkStartSource))
    }
    if !wroteAny { b.WriteString("_No issues completed in the last 7 days._\n") }
    b.WriteString("\n")

    bounds := Boundaries(now)
    b.WriteString("## 🚧 **WORK IN PROGRESS**\n\n")
    wroteAny = false
    for _, m := range metrics {
        if m.Closed() || m.WorkStartedAt == nil { continue }
        wroteAny = true
        freshness := ""
        if !m.WorkStartedAt.Before(bounds.ThisMonday) && m.WorkStartedAt.Before(bounds.NextMonday) {
            freshness = " _(started this week)_"
        }
        fmt.Fprintf(&b, "- %s **#%d %s**%s — started %s via %s%s\n",
            typeEmoji(m), m.IssueNumber, m.Title, r.footnote(m),
            m.WorkStartedAt.Format("Jan 2"), sourceLabel(m.WorkStartSource), freshness)
    }
    if !wroteAny { b.WriteString("_No open issues with a determined work start._\n") }
    b.WriteString("\n")

    var noted []domain.CycleTimeMetric
    for _, m := range metrics { if len(m.Notes) > 0 { noted = append(noted, m) } }
    if len(noted) > 0 {
        b.WriteString("## ⚠️ **DATA QUALITY**\n\n")
        for _, m := range noted {
            fmt.Fprintf(&b, "- #%d: %s\n", m.IssueNumber, strings.Join(m.Notes, "; "))
        }
        b.WriteString("\n")
    }

    if len(r.footnotes) > 0 {
        b.WriteString("---\n\n")
        for _, fn := range r.footnotes { b.WriteString(fn); b.WriteString("\n") }
    }
    return b.String()
}

func sourceLabel(s domain.Source) string {
    if s == "" { return "undetermined" }
    return string(s)
}
