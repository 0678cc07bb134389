/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/akalsey/github-issue-analysis/internal/analysis"
    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/akalsey/github-issue-analysis/internal/domain"
    "github.com/akalsey/github-issue-analysis/internal/repo"
    "github.com/akalsey/github-issue-analysis/internal/report"
)

type Collector interface {
    Collect(ctx context.Context) ([]domain.IssueRecord, domain.ScopeSet, error)
}

type LLM interface {
    SummarizeIssue(ctx context.Context, payload any) (string, error)
    SummarizeRun(ctx context.Context, kpis map[string]float64, highlights []string) (string, error)
}

type Store interface {
    EnsureSchema(ctx context.Context) error
    TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
    AdvisoryUnlock(ctx context.Context, key int64) error
    BulkUpsertIssues(ctx context.Context, issues []domain.IssueRecord) error
    BulkInsertIssueMetrics(ctx context.Context, ms []domain.CycleTimeMetric) error
    BulkInsertWeeklyMetrics(ctx context.Context, weekStart time.Time, kpis map[string]float64) error
    GetWeeklyMetrics(ctx context.Context, weekStart time.Time) (map[string]float64, error)
    StartAnalysisRun(ctx context.Context, id, repoName string, scopes domain.ScopeSet) error
    FinishAnalysisRun(ctx context.Context, id string, scanned, analyzed, skipped int, success bool, errStr string) error
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Service struct {
    cfg       config.Config
    log       zerolog.Logger
    repo      Store
    collector Collector
    analyzer  *analysis.Analyzer
    llm       LLM

    mu         sync.RWMutex
    lastScopes domain.ScopeSet
}

func New(cfg config.Config, log zerolog.Logger, r Store, c Collector, llm LLM) *Service {
    an := analysis.New(analysis.Options{
        ClampNegative: cfg.ClampNegativeDurations,
        Workers:       cfg.WorkersAnalyze,
    })
    return &Service{cfg: cfg, log: log, repo: r, collector: c, analyzer: an, llm: llm}
}

// RunAnalysis is the full pipeline: collect, filter, analyze, persist,
// aggregate, summarize, write reports. Partial failures past the analysis
// stage degrade the run rather than abort it.
func (s *Service) RunAnalysis(ctx context.Context) (err error) {
    runID := uuid.NewString()
    repoName := s.cfg.GitHubOwner + "/" + s.cfg.GitHubRepo
    s.log.Info().Str("run", runID).Str("repo", repoName).Msg("analysis run start")

    var scanned, analyzed, skipped int
    started := false
    defer func() {
        if !started { return }
        msg := ""
        if err != nil { msg = err.Error() }
        if ferr := s.repo.FinishAnalysisRun(ctx, runID, scanned, analyzed, skipped, err == nil, msg); ferr != nil {
            s.log.Error().Err(ferr).Msg("finish run record failed")
        }
    }()

    issues, scopes, err := s.collector.Collect(ctx)
    if err != nil { return fmt.Errorf("collect: %w", err) }
    s.mu.Lock()
    s.lastScopes = scopes
    s.mu.Unlock()
    scanned = len(issues)

    if serr := s.repo.StartAnalysisRun(ctx, runID, repoName, scopes); serr != nil {
        s.log.Error().Err(serr).Msg("start run record failed")
    } else {
        started = true
    }

    if s.cfg.StrategicOnly {
        before := len(issues)
        issues = analysis.FilterStrategic(issues)
        s.log.Info().Int("before", before).Int("after", len(issues)).Msg("strategic filter applied")
    }

    if err := s.repo.BulkUpsertIssues(ctx, issues); err != nil {
        s.log.Error().Err(err).Msg("issue upsert failed, continuing without persistence")
    }

    res := s.analyzer.AnalyzeBatch(issues)
    analyzed = len(res.Metrics)
    skipped = res.Skipped
    for _, n := range res.Notes { s.log.Warn().Str("run", runID).Msg(n) }

    if err := s.repo.BulkInsertIssueMetrics(ctx, res.Metrics); err != nil {
        s.log.Error().Err(err).Msg("metric insert failed, continuing without persistence")
    }

    weekStart := report.WeekStart(time.Now())
    kpis := WeeklyKPIs(res.Metrics, time.Now())
    if err := s.repo.BulkInsertWeeklyMetrics(ctx, weekStart, kpis); err != nil {
        s.log.Error().Err(err).Msg("weekly kpi insert failed")
    }
    trends := s.weekOverWeek(ctx, weekStart, kpis)

    aiSummary := s.summarize(ctx, res.Metrics, kpis, trends)

    if err := s.writeReports(res.Metrics, kpis, aiSummary); err != nil {
        return fmt.Errorf("write reports: %w", err)
    }

    s.log.Info().Str("run", runID).Int("scanned", scanned).Int("analyzed", analyzed).Int("skipped", skipped).Msg("analysis run complete")
    return nil
}

// WeeklyKPIs aggregates per-issue metrics into the weekly KPI map.
// Only issues closed in the current Monday-start week count toward
// throughput and the averages.
func WeeklyKPIs(metrics []domain.CycleTimeMetric, now time.Time) map[string]float64 {
    weekStart := report.WeekStart(now)
    weekEnd := weekStart.AddDate(0, 0, 7)
    kpis := map[string]float64{}

    var done, open, undetermined int
    var leadSum, cycleSum float64
    var leadN, cycleN int
    for _, m := range metrics {
        if m.WorkStartedAt == nil { undetermined++ }
        if !m.Closed() { open++; continue }
        if m.ClosedAt.Before(weekStart) || !m.ClosedAt.Before(weekEnd) { continue }
        done++
        if m.LeadTimeDays != nil { leadSum += *m.LeadTimeDays; leadN++ }
        if m.CycleTimeDays != nil { cycleSum += *m.CycleTimeDays; cycleN++ }
    }
    kpis["throughput_total"] = float64(done)
    kpis["wip_count"] = float64(open)
    kpis["undetermined_start_count"] = float64(undetermined)
    if leadN > 0 { kpis["lead_time_days_avg"] = leadSum / float64(leadN) } else { kpis["lead_time_days_avg"] = 0 }
    if cycleN > 0 { kpis["cycle_time_days_avg"] = cycleSum / float64(cycleN) } else { kpis["cycle_time_days_avg"] = 0 }
    if len(metrics) > 0 {
        kpis["start_coverage_ratio"] = float64(len(metrics)-undetermined) / float64(len(metrics))
    }
    return kpis
}

// weekOverWeek compares this week's KPIs to the stored prior week and
// renders the deltas as highlight lines for the AI narrative.
func (s *Service) weekOverWeek(ctx context.Context, weekStart time.Time, kpis map[string]float64) []string {
    prev, err := s.repo.GetWeeklyMetrics(ctx, weekStart.AddDate(0, 0, -7))
    if err != nil || len(prev) == 0 { return nil }
    var out []string
    for _, k := range []string{"throughput_total", "lead_time_days_avg", "cycle_time_days_avg", "wip_count"} {
        pv, ok := prev[k]
        if !ok { continue }
        out = append(out, fmt.Sprintf("%s: %.2f this week vs %.2f last week", k, kpis[k], pv))
    }
    return out
}

// summarize runs per-issue AI highlights concurrently, then folds them
// into one run-level narrative. Missing key or any failure yields "".
func (s *Service) summarize(ctx context.Context, metrics []domain.CycleTimeMetric, kpis map[string]float64, highlights []string) string {
    if s.llm == nil || strings.TrimSpace(s.cfg.OpenAIKey) == "" { return "" }
    sel := selectForAI(metrics, s.cfg.AIMaxIssues)
    if len(sel) > 0 {
        type result struct{ line string; err error }
        jobs := make(chan domain.CycleTimeMetric)
        results := make(chan result)
        workerCount := s.cfg.WorkersAI
        if workerCount <= 0 { workerCount = 3 }
        for w := 0; w < workerCount; w++ {
            go func() {
                for m := range jobs {
                    line, err := s.llm.SummarizeIssue(ctx, redactMetric(m))
                    results <- result{line: line, err: err}
                }
            }()
        }
        go func(){ for _, m := range sel { jobs <- m }; close(jobs) }()
        for i := 0; i < len(sel); i++ {
            r := <-results
            if r.err == nil && r.line != "" { highlights = append(highlights, r.line) }
        }
    }
    out, err := s.llm.SummarizeRun(ctx, kpis, highlights)
    if err != nil {
        s.log.Warn().Err(err).Msg("ai summary failed, report ships without it")
        return ""
    }
    return out
}

// selectForAI picks closed issues for per-issue summaries, noted issues
// first (they carry the interesting timelines), capped at max.
func selectForAI(metrics []domain.CycleTimeMetric, max int) []domain.CycleTimeMetric {
    if max <= 0 { max = 50 }
    var sel []domain.CycleTimeMetric
    for _, m := range metrics {
        if m.Closed() && len(m.Notes) > 0 { sel = append(sel, m) }
    }
    for _, m := range metrics {
        if len(sel) >= max { break }
        if m.Closed() && len(m.Notes) == 0 { sel = append(sel, m) }
    }
    if len(sel) > max { sel = sel[:max] }
    return sel
}

func (s *Service) writeReports(metrics []domain.CycleTimeMetric, kpis map[string]float64, aiSummary string) error {
    dir := s.cfg.ReportDir
    if dir == "" { dir = "reports" }
    if err := os.MkdirAll(dir, 0o755); err != nil { return err }

    md := &report.Markdown{Owner: s.cfg.GitHubOwner, Repo: s.cfg.GitHubRepo}
    body := md.Render(metrics, kpis, aiSummary, time.Now())
    if err := os.WriteFile(filepath.Join(dir, "status_report.md"), []byte(body), 0o644); err != nil { return err }

    f, err := os.Create(filepath.Join(dir, "issue_metrics.csv"))
    if err != nil { return err }
    defer f.Close()
    if err := report.WriteCSV(f, metrics); err != nil { return err }
    s.log.Info().Str("dir", dir).Msg("reports written")
    return nil
}

// LatestReport returns the current markdown report body, if one exists.
func (s *Service) LatestReport() (string, error) {
    dir := s.cfg.ReportDir
    if dir == "" { dir = "reports" }
    b, err := os.ReadFile(filepath.Join(dir, "status_report.md"))
    if err != nil { return "", err }
    return string(b), nil
}

func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) { return s.repo.GetLastRun(ctx) }

// Scopes reports what the most recent collection could query.
func (s *Service) Scopes() domain.ScopeSet {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.lastScopes
}
