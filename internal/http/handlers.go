/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"
    "os"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/akalsey/github-issue-analysis/internal/config"
    "github.com/akalsey/github-issue-analysis/internal/domain"
    "github.com/akalsey/github-issue-analysis/internal/repo"
)

type service interface {
    RunAnalysis(ctx context.Context) error
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
    Scopes() domain.ScopeSet
    LatestReport() (string, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) Scopes(c *gin.Context) {
    scopes := h.svc.Scopes()
    if scopes == nil {
        c.JSON(http.StatusOK, gin.H{"probed": false})
        return
    }
    c.JSON(http.StatusOK, gin.H{
        "probed":        true,
        "issues":        scopes.Has(domain.ScopeIssues),
        "commits":       scopes.Has(domain.ScopeCommits),
        "pull_requests": scopes.Has(domain.ScopePulls),
    })
}

func (h *Handlers) RunNow(c *gin.Context) {
    // Run detached from the HTTP request to avoid context cancellation
    go func(){
        if err := h.svc.RunAnalysis(context.Background()); err != nil {
            h.log.Error().Err(err).Msg("queued analysis run failed")
        }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) LatestReport(c *gin.Context) {
    body, err := h.svc.LatestReport()
    if err != nil {
        if os.IsNotExist(err) {
            c.JSON(http.StatusNotFound, gin.H{"error": "no report generated yet"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
}
