package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_YieldBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history at a steady yield
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 3600), LogYield: 2})
	}

	// An order and a half of magnitude above the average
	bookmarks := bd.Check(WindowStats{WindowEnd: 18000, LogYield: 3.5})
	if !hasBookmark(bookmarks, BookmarkYieldBreakthrough) {
		t.Error("expected yield_breakthrough bookmark")
	}
}

func TestBookmarkDetector_NoBreakthroughWithoutHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{LogYield: 0.5})

	if bookmarks := bd.Check(WindowStats{LogYield: 5}); hasBookmark(bookmarks, BookmarkYieldBreakthrough) {
		t.Error("breakthrough reported with a single window of history")
	}
}

func TestBookmarkDetector_SeedStarvation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Consumers fully fed
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 3600), Consumers: 2, SatisfiedMean: 1})
	}

	// Supply collapses
	bookmarks := bd.Check(WindowStats{WindowEnd: 10800, Consumers: 2, SatisfiedMean: 0.3})
	if !hasBookmark(bookmarks, BookmarkSeedStarvation) {
		t.Fatal("expected seed_starvation bookmark")
	}

	// The peak resets, so staying starved does not trigger again
	bookmarks = bd.Check(WindowStats{WindowEnd: 14400, Consumers: 2, SatisfiedMean: 0.3})
	if hasBookmark(bookmarks, BookmarkSeedStarvation) {
		t.Error("seed_starvation triggered twice")
	}
}

func TestBookmarkDetector_DriverDegraded(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bookmarks := bd.Check(WindowStats{WindowEnd: 3600, Degraded: 2})
	if !hasBookmark(bookmarks, BookmarkDriverDegraded) {
		t.Error("expected driver_degraded bookmark")
	}
}

func TestBookmarkDetector_StableEconomy(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEnd: float64(i * 3600), LogYield: 2})
		if hasBookmark(bookmarks, BookmarkStableEconomy) {
			if triggered >= 0 {
				t.Fatalf("stable_economy triggered again at window %d", i)
			}
			triggered = i
		}
	}
	// Four windows of history before the first check, then five stable ones
	if triggered != 8 {
		t.Errorf("stable_economy triggered at window %d, want 8", triggered)
	}
}
