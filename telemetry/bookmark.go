package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkYieldBreakthrough BookmarkType = "yield_breakthrough"
	BookmarkSeedStarvation    BookmarkType = "seed_starvation"
	BookmarkDriverDegraded    BookmarkType = "driver_degraded"
	BookmarkStableEconomy     BookmarkType = "stable_economy"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Time        float64      `csv:"time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"time", b.Time,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the economy.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	satisfiedPeak      float64 // best mean satisfaction since the last starvation
	stableWindowsCount int     // consecutive windows with a flat log yield
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable economy detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.Degraded > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkDriverDegraded,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Iteration cap hit %d times; step floor widened", stats.Degraded),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Yield breakthrough: an order of magnitude above the rolling mean
		if b := bd.checkYieldBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Seed starvation: satisfaction fell from well fed to under half
		if b := bd.checkSeedStarvation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable economy: flat log yield over 5+ windows
		if b := bd.checkStableEconomy(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Consumers > 0 && stats.SatisfiedMean > bd.satisfiedPeak {
		bd.satisfiedPeak = stats.SatisfiedMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		ordered := make([]WindowStats, 0, bd.historySize)
		ordered = append(ordered, bd.history[bd.historyIdx:]...)
		return append(ordered, bd.history[:bd.historyIdx]...)
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkYieldBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	yields := make([]float64, len(history))
	for i, h := range history {
		yields[i] = h.LogYield
	}
	avg := stat.Mean(yields, nil)

	if stats.LogYield >= avg+1 && stats.LogYield > 1 {
		return &Bookmark{
			Type:        BookmarkYieldBreakthrough,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Log yield %.2f is %.1f orders above average (%.2f)", stats.LogYield, stats.LogYield-avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSeedStarvation(stats WindowStats) *Bookmark {
	if stats.Consumers == 0 || bd.satisfiedPeak < 0.9 {
		return nil
	}

	if stats.SatisfiedMean < 0.5 {
		// Reset the peak after triggering
		oldPeak := bd.satisfiedPeak
		bd.satisfiedPeak = stats.SatisfiedMean

		return &Bookmark{
			Type:        BookmarkSeedStarvation,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Consumer satisfaction fell from %.0f%% to %.0f%%", oldPeak*100, stats.SatisfiedMean*100),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEconomy(stats WindowStats) *Bookmark {
	if stats.LogYield <= 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := make([]float64, 0, 5)
	for _, h := range history[len(history)-4:] {
		recent = append(recent, h.LogYield)
	}
	recent = append(recent, stats.LogYield)

	if stat.StdDev(recent, nil) < 0.05 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEconomy,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Stable economy at log yield %.2f over 5+ windows", stats.LogYield),
		}
	}

	return nil
}
