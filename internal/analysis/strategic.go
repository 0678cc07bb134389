/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package analysis

import (
    "strings"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// Strategic-work classification: business-value work in, operational
// maintenance out. Exclusion wins over inclusion; unlabeled work is
// excluded by default.
var strategicInclude = []string{
    "product/",      // all product areas (voice, messaging, ai, video, ...)
    "epic",          // major initiatives
    "area/customer", // customer-impacting
    "type/feature",
    "type/bug",
}

var strategicExclude = []string{
    "type/chore",
    "dev/iac",
    "deploy/",
    "compliance",
    "tech-backlog",
    "internal",
    "testing/",
    "ci/cd",
    "monitoring",
    "security/",
}

// IsStrategic classifies one issue by substring match over its joined
// lowercase labels.
func IsStrategic(issue domain.IssueRecord) bool {
    labels := strings.ToLower(strings.Join(issue.Labels, " "))
    for _, p := range strategicExclude {
        if strings.Contains(labels, p) { return false }
    }
    for _, p := range strategicInclude {
        if strings.Contains(labels, p) { return true }
    }
    return false
}

// FilterStrategic keeps only strategic issues, preserving order.
func FilterStrategic(issues []domain.IssueRecord) []domain.IssueRecord {
    out := make([]domain.IssueRecord, 0, len(issues))
    for _, is := range issues {
        if IsStrategic(is) { out = append(out, is) }
    }
    return out
}
