/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package github

import (
    "context"
    "fmt"
    "net/http"
    "net/url"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// ProbeScopes checks which data sources the configured token can actually
// reach by issuing cheap single-item requests. Fine-grained tokens do not
// report classic scope headers, so probing real endpoints is the only
// reliable test. A failed probe disables that source for the run; it is
// never fatal.
func (c *Client) ProbeScopes(ctx context.Context, owner, repo string) domain.ScopeSet {
    scopes := domain.ScopeSet{}
    base := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
    one := url.Values{}
    one.Set("per_page", "1")

    if ok := c.probe(ctx, base+"/issues", one, "application/vnd.github+json"); ok {
        scopes[domain.ScopeIssues] = true
    } else {
        c.log.Warn().Str("scope", string(domain.ScopeIssues)).Msg("token cannot read issues")
    }

    q := url.Values{}
    q.Set("q", fmt.Sprintf("repo:%s/%s fix", owner, repo))
    q.Set("per_page", "1")
    if ok := c.probe(ctx, "/search/commits", q, "application/vnd.github.cloak-preview+json"); ok {
        scopes[domain.ScopeCommits] = true
    } else {
        c.log.Warn().Str("scope", string(domain.ScopeCommits)).Msg("token cannot search commits, commit signals disabled")
    }

    if ok := c.probe(ctx, base+"/pulls", one, "application/vnd.github+json"); ok {
        scopes[domain.ScopePulls] = true
    }
    return scopes
}

func (c *Client) probe(ctx context.Context, path string, q url.Values, accept string) bool {
    status, err := c.doJSON(ctx, http.MethodGet, c.apiURL(path, q), accept, nil)
    if err != nil {
        // 404 and 403 mean the token lacks access; anything else is a
        // transient failure and we assume access rather than silently
        // dropping a signal source.
        if status == http.StatusNotFound || status == http.StatusForbidden { return false }
        c.log.Warn().Err(err).Str("path", path).Msg("scope probe inconclusive, assuming access")
        return true
    }
    return true
}
