package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkForageBreakthrough BookmarkType = "forage_breakthrough"
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkPopulationRecovery BookmarkType = "population_recovery"
	BookmarkExtinction         BookmarkType = "extinction"
	BookmarkStablePopulation   BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentMin          int // minimum cell count in recent history
	recentPeak         int // peak cell count in recent history
	stableWindowsCount int // consecutive windows with a stable population
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Extinction is reported even on the first window
	if stats.Reseeded > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population died out and was reseeded with %d cells", stats.Reseeded),
		})
		bd.recentPeak = 0
		bd.recentMin = 0
		bd.stableWindowsCount = 0
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkForageBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStable(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Cells < bd.recentMin || bd.recentMin == 0 {
		bd.recentMin = stats.Cells
	}
	if stats.Cells > bd.recentPeak {
		bd.recentPeak = stats.Cells
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

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkForageBreakthrough fires when the hit rate is more than twice the
// rolling average.
func (bd *BookmarkDetector) checkForageBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalHits, totalResolved int
	for _, h := range history {
		totalHits += h.Hits
		totalResolved += h.Hits + h.Misses
	}
	if totalHits == 0 || totalResolved == 0 {
		return nil
	}

	avgHitRate := float64(totalHits) / float64(totalResolved)
	if stats.HitRate > avgHitRate*2.0 && stats.Hits >= 5 {
		return &Bookmark{
			Type:        BookmarkForageBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Hit rate %.2f is %.1fx average (%.2f)", stats.HitRate, stats.HitRate/avgHitRate, avgHitRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkRecovery(stats WindowStats) *Bookmark {
	if bd.recentMin == 0 || bd.recentMin > 3 {
		return nil
	}

	threshold := bd.recentMin * 3
	if stats.Cells >= threshold && stats.Cells >= 6 {
		oldMin := bd.recentMin
		bd.recentMin = stats.Cells

		return &Bookmark{
			Type:        BookmarkPopulationRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population recovered from %d to %d", oldMin, stats.Cells),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Cells)/float64(bd.recentPeak)
	if dropPercent > 0.30 && stats.Cells < bd.recentPeak-10 {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Cells

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Cells),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Cells < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := make([]float64, 0, 4)
	for _, h := range history[len(history)-4:] {
		recent = append(recent, float64(h.Cells))
	}
	mean, std := ComputeMeanStd(recent)

	// Low variance: coefficient of variation < 20%
	if mean > 0 && std/mean < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable population of %d cells over 5+ windows", stats.Cells),
		}
	}

	return nil
}
