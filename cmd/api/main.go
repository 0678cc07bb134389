/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/akalsey/github-issue-analysis/internal/adapters/github"
    "github.com/akalsey/github-issue-analysis/internal/adapters/openai"
    "github.com/akalsey/github-issue-analysis/internal/collect"
    "github.com/akalsey/github-issue-analysis/internal/config"
    apphttp "github.com/akalsey/github-issue-analysis/internal/http"
    "github.com/akalsey/github-issue-analysis/internal/jobs"
    "github.com/akalsey/github-issue-analysis/internal/logger"
    "github.com/akalsey/github-issue-analysis/internal/repo"
    "github.com/akalsey/github-issue-analysis/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
        log.Fatal().Msg("GITHUB_OWNER and GITHUB_REPO are required")
    }

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    repository := repo.NewRepository(db, log)
    {
        ctx2, cancel2 := context.WithTimeout(ctx, 30*time.Second); defer cancel2()
        if err := repository.EnsureSchema(ctx2); err != nil {
            log.Fatal().Err(err).Msg("schema migration failed")
        }
    }

    // Adapters
    gh := github.NewClient(cfg, log)
    llm := openai.NewClient(cfg, log)

    // Services
    collector := collect.New(gh, cfg, log)
    svc := services.New(cfg, log, repository, collector, llm)

    // HTTP server (Gin)
    router := apphttp.NewRouter(cfg, log, svc)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
