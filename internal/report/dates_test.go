package report

import (
    "testing"
    "time"
)

func TestWeekStartIsMonday(t *testing.T) {
    cases := []struct{ in, want string }{
        {"2024-06-12T15:04:05Z", "2024-06-10T00:00:00Z"}, // Wednesday
        {"2024-06-10T00:00:00Z", "2024-06-10T00:00:00Z"}, // Monday itself
        {"2024-06-16T23:59:59Z", "2024-06-10T00:00:00Z"}, // Sunday belongs to the prior Monday
    }
    for _, c := range cases {
        in, _ := time.Parse(time.RFC3339, c.in)
        want, _ := time.Parse(time.RFC3339, c.want)
        if got := WeekStart(in); !got.Equal(want) {
            t.Fatalf("WeekStart(%s) = %s, want %s", c.in, got, want)
        }
    }
}

func TestBoundariesAdjacent(t *testing.T) {
    now, _ := time.Parse(time.RFC3339, "2024-06-12T10:00:00Z")
    b := Boundaries(now)
    if !b.LastMonday.AddDate(0, 0, 7).Equal(b.ThisMonday) { t.Fatal("last week not adjacent to this week") }
    if !b.ThisMonday.AddDate(0, 0, 7).Equal(b.NextMonday) { t.Fatal("next week not adjacent to this week") }
    if b.ThisSunday.Sub(b.ThisMonday) != 6*24*time.Hour { t.Fatal("week is not 7 days") }
}

func TestIsRecentlyCompleted(t *testing.T) {
    now, _ := time.Parse(time.RFC3339, "2024-06-12T10:00:00Z")
    recent := now.AddDate(0, 0, -3)
    stale := now.AddDate(0, 0, -10)
    if !IsRecentlyCompleted(&recent, now, 7) { t.Fatal("3-day-old closure should be recent") }
    if IsRecentlyCompleted(&stale, now, 7) { t.Fatal("10-day-old closure should not be recent") }
    if IsRecentlyCompleted(nil, now, 7) { t.Fatal("open issue is never recently completed") }
}
