/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/akalsey/github-issue-analysis/internal/config"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc any) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context){
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    r.GET("/admin/last-run", h.LastRun)
    r.GET("/admin/scopes", h.Scopes)
    r.POST("/admin/run", h.RunNow)
    r.GET("/reports/latest", h.LatestReport)

    return r
}
