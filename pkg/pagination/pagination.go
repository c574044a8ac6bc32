package pagination

const (
	// DefaultMaxPages bounds a cursor walk when no limit is configured.
	DefaultMaxPages = 10000
	// MaxMaxPages caps any configured limit.
	MaxMaxPages = 1000000
)

// StopReason explains why a cursor walk ended.
type StopReason string

const (
	StopNone          StopReason = ""
	StopExhausted     StopReason = "exhausted"
	StopStatus        StopReason = "non_success_status"
	StopMaxPages      StopReason = "max_pages"
	StopMissingCursor StopReason = "missing_cursor"
	StopRepeatCursor  StopReason = "repeated_cursor"
)

// Truncated reports whether the walk ended before the server said it was done.
func (r StopReason) Truncated() bool {
	return r != StopNone && r != StopExhausted
}

// NormalizeMaxPages enforces the default and upper bound.
func NormalizeMaxPages(limit int) int {
	if limit <= 0 {
		return DefaultMaxPages
	}
	if limit > MaxMaxPages {
		return MaxMaxPages
	}
	return limit
}

// Walker tracks an opaque server cursor across pages and decides when to stop.
// Cursors are assumed monotonic; a cursor seen twice ends the walk.
type Walker struct {
	maxPages int
	pages    int
	cursor   string
	seen     map[string]struct{}
}

// NewWalker starts a walk with an empty cursor.
func NewWalker(maxPages int) *Walker {
	return &Walker{
		maxPages: NormalizeMaxPages(maxPages),
		seen:     map[string]struct{}{},
	}
}

// Cursor is the token to send with the next request; empty on the first page.
func (w *Walker) Cursor() string {
	return w.cursor
}

// Pages counts successfully consumed pages.
func (w *Walker) Pages() int {
	return w.pages
}

// Advance records a consumed page and returns a non-empty reason when the
// walk must stop.
func (w *Walker) Advance(next string, hasMore bool) StopReason {
	w.pages++
	if !hasMore {
		return StopExhausted
	}
	if w.pages >= w.maxPages {
		return StopMaxPages
	}
	if next == "" {
		return StopMissingCursor
	}
	if _, dup := w.seen[next]; dup || next == w.cursor {
		return StopRepeatCursor
	}
	w.seen[next] = struct{}{}
	w.cursor = next
	return StopNone
}
