package repo

import (
    "context"
    "errors"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/akalsey/github-issue-analysis/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// EnsureSchema creates the tables on first boot. Idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
    const ddl = `
        CREATE TABLE IF NOT EXISTS issues(
            number      BIGINT PRIMARY KEY,
            title       TEXT,
            state       TEXT,
            created_at  TIMESTAMPTZ,
            closed_at   TIMESTAMPTZ,
            labels      TEXT[],
            assignee    TEXT,
            milestone   TEXT
        );
        CREATE TABLE IF NOT EXISTS issue_metrics(
            issue_number      BIGINT PRIMARY KEY REFERENCES issues(number),
            work_started_at   TIMESTAMPTZ,
            work_start_source TEXT,
            lead_time_days    DOUBLE PRECISION,
            cycle_time_days   DOUBLE PRECISION,
            notes             TEXT[],
            computed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
        );
        CREATE TABLE IF NOT EXISTS metrics_weekly(
            week_start TIMESTAMPTZ NOT NULL,
            kpi        TEXT NOT NULL,
            value      DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (week_start, kpi)
        );
        CREATE TABLE IF NOT EXISTS analysis_runs(
            id              TEXT PRIMARY KEY,
            started_at      TIMESTAMPTZ NOT NULL,
            finished_at     TIMESTAMPTZ,
            repo            TEXT,
            issues_scanned  INT,
            issues_analyzed INT,
            issues_skipped  INT,
            scopes          TEXT[],
            success         BOOLEAN NOT NULL DEFAULT false,
            error           TEXT
        );`
    _, err := r.db.Pool.Exec(ctx, ddl)
    return err
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

func (r *Repository) BulkUpsertIssues(ctx context.Context, issues []domain.IssueRecord) error {
    if len(issues) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `
        INSERT INTO issues(number, title, state, created_at, closed_at, labels, assignee, milestone)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT(number) DO UPDATE SET
            title=EXCLUDED.title,
            state=EXCLUDED.state,
            created_at=EXCLUDED.created_at,
            closed_at=EXCLUDED.closed_at,
            labels=EXCLUDED.labels,
            assignee=EXCLUDED.assignee,
            milestone=EXCLUDED.milestone`
    for _, i := range issues {
        batch.Queue(q, i.Number, i.Title, i.State, i.CreatedAt, i.ClosedAt, i.Labels, i.Assignee, i.Milestone)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range issues { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

func (r *Repository) BulkInsertIssueMetrics(ctx context.Context, ms []domain.CycleTimeMetric) error {
    if len(ms) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `
        INSERT INTO issue_metrics(issue_number, work_started_at, work_start_source, lead_time_days, cycle_time_days, notes, computed_at)
        VALUES($1,$2,$3,$4,$5,$6,now())
        ON CONFLICT(issue_number) DO UPDATE SET
            work_started_at=EXCLUDED.work_started_at,
            work_start_source=EXCLUDED.work_start_source,
            lead_time_days=EXCLUDED.lead_time_days,
            cycle_time_days=EXCLUDED.cycle_time_days,
            notes=EXCLUDED.notes,
            computed_at=now()`
    for _, m := range ms {
        batch.Queue(q, m.IssueNumber, m.WorkStartedAt, string(m.WorkStartSource), m.LeadTimeDays, m.CycleTimeDays, m.Notes)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range ms { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// Persist KPI values for a week
func (r *Repository) BulkInsertWeeklyMetrics(ctx context.Context, weekStart time.Time, kpis map[string]float64) error {
    if len(kpis) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO metrics_weekly(week_start, kpi, value) VALUES($1,$2,$3)
        ON CONFLICT (week_start, kpi) DO UPDATE SET value=EXCLUDED.value`
    for k, v := range kpis { batch.Queue(q, weekStart, k, v) }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range kpis { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

func (r *Repository) GetWeeklyMetrics(ctx context.Context, weekStart time.Time) (map[string]float64, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT kpi, value FROM metrics_weekly WHERE week_start=$1`, weekStart)
    if err != nil { return nil, err }
    defer rows.Close()
    out := map[string]float64{}
    for rows.Next() { var k string; var v float64; if err := rows.Scan(&k, &v); err != nil { return nil, err }; out[k] = v }
    return out, nil
}

// Analysis runs
func (r *Repository) StartAnalysisRun(ctx context.Context, id, repoName string, scopes domain.ScopeSet) error {
    names := make([]string, 0, len(scopes))
    for sc, ok := range scopes { if ok { names = append(names, string(sc)) } }
    const q = `INSERT INTO analysis_runs(id, started_at, repo, scopes, success) VALUES($1, now(), $2, $3, false)`
    _, err := r.db.Pool.Exec(ctx, q, id, repoName, names)
    return err
}

func (r *Repository) FinishAnalysisRun(ctx context.Context, id string, scanned, analyzed, skipped int, success bool, errStr string) error {
    const q = `UPDATE analysis_runs SET finished_at=now(), issues_scanned=$2, issues_analyzed=$3, issues_skipped=$4, success=$5, error=$6 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, scanned, analyzed, skipped, success, errStr)
    return err
}

type LastRun struct {
    ID             string     `json:"id"`
    StartedAt      time.Time  `json:"started_at"`
    FinishedAt     *time.Time `json:"finished_at"`
    Repo           string     `json:"repo"`
    IssuesScanned  int        `json:"issues_scanned"`
    IssuesAnalyzed int        `json:"issues_analyzed"`
    IssuesSkipped  int        `json:"issues_skipped"`
    Scopes         []string   `json:"scopes"`
    Success        bool       `json:"success"`
    Error          string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    const q = `SELECT id, started_at, finished_at, coalesce(repo,''),
        coalesce(issues_scanned,0), coalesce(issues_analyzed,0), coalesce(issues_skipped,0),
        coalesce(scopes,'{}'), coalesce(success,false), coalesce(error,'')
        FROM analysis_runs ORDER BY started_at DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    lr := &LastRun{}
    if err := row.Scan(&lr.ID, &lr.StartedAt, &lr.FinishedAt, &lr.Repo, &lr.IssuesScanned, &lr.IssuesAnalyzed, &lr.IssuesSkipped, &lr.Scopes, &lr.Success, &lr.Error); err != nil {
        return nil, err
    }
    return lr, nil
}
