/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package analysis

import (
    "time"

    "github.com/akalsey/github-issue-analysis/internal/domain"
)

// Resolve reduces a signal set to one best-estimate work start. The
// lowest confidence rank wins; within a rank the earliest timestamp
// wins (work started as early as any equally reliable signal says).
// An empty set resolves to not-ok: work start undetermined, which is a
// valid terminal state and not an error.
func Resolve(signals []domain.WorkStartSignal) (time.Time, domain.Source, bool) {
    best := -1
    for i, s := range signals {
        if best < 0 { best = i; continue }
        b := signals[best]
        if s.Rank < b.Rank || (s.Rank == b.Rank && s.At.Before(b.At)) { best = i }
    }
    if best < 0 { return time.Time{}, "", false }
    return signals[best].At, signals[best].Source, true
}
