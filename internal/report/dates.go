/* Copyright (c) 2025 Adam Kalsey
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import "time"

// WeekBoundaries are Monday-start windows around a reference time, used
// for weekly KPI bucketing and for marking fresh starts in the
// work-in-progress report section.
type WeekBoundaries struct {
    ThisMonday time.Time
    ThisSunday time.Time
    LastMonday time.Time
    LastSunday time.Time
    NextMonday time.Time
    NextSunday time.Time
}

// WeekStart truncates t to the Monday 00:00 UTC that begins its week.
func WeekStart(t time.Time) time.Time {
    t = t.UTC()
    day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
    wd := int(day.Weekday()) // Sunday = 0
    offset := (wd + 6) % 7   // days since Monday
    return day.AddDate(0, 0, -offset)
}

func Boundaries(now time.Time) WeekBoundaries {
    monday := WeekStart(now)
    return WeekBoundaries{
        ThisMonday: monday,
        ThisSunday: monday.AddDate(0, 0, 6),
        LastMonday: monday.AddDate(0, 0, -7),
        LastSunday: monday.AddDate(0, 0, -1),
        NextMonday: monday.AddDate(0, 0, 7),
        NextSunday: monday.AddDate(0, 0, 13),
    }
}

// IsRecentlyCompleted reports whether the issue closed within the last
// `days` days relative to now.
func IsRecentlyCompleted(closedAt *time.Time, now time.Time, days int) bool {
    if closedAt == nil { return false }
    return !closedAt.Before(now.AddDate(0, 0, -days))
}
