package report

import (
    "encoding/csv"
    "io"
    "strconv"
    "strings"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// WriteCSV emits one row per analyzed issue. Absent values stay empty
// cells so downstream spreadsheets can tell "unknown" from zero.
func WriteCSV(w io.Writer, metrics []domain.CycleTimeMetric) error {
    cw := csv.NewWriter(w)
    header := []string{"number", "title", "state", "created_at", "closed_at",
        "work_started_at", "work_start_source", "lead_time_days", "cycle_time_days",
        "labels", "assignee", "notes"}
    if err := cw.Write(header); err != nil { return err }
    for _, m := range metrics {
        row := []string{
            strconv.Itoa(m.IssueNumber),
            m.Title,
            m.State,
            m.CreatedAt.UTC().Format(time.RFC3339),
            fmtTime(m.ClosedAt),
            fmtTime(m.WorkStartedAt),
            string(m.WorkStartSource),
            fmtFloat(m.LeadTimeDays),
            fmtFloat(m.CycleTimeDays),
            strings.Join(m.Labels, "|"),
            m.Assignee,
            strings.Join(m.Notes, "; "),
        }
        if err := cw.Write(row); err != nil { return err }
    }
    cw.Flush()
    return cw.Error()
}

func fmtTime(t *time.Time) string {
    if t == nil { return "" }
    return t.UTC().Format(time.RFC3339)
}

func fmtFloat(v *float64) string {
    if v == nil { return "" }
    return strconv.FormatFloat(*v, 'f', 2, 64)
}
