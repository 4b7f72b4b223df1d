package store

import "time"

type ExperimentStatus string

const (
	StatusNotStarted      ExperimentStatus = "tracking-not-started"
	StatusImplemented     ExperimentStatus = "implemented"
	StatusPivoted         ExperimentStatus = "pivoted"
	StatusMetaOptimizing  ExperimentStatus = "meta-optimizing"
	StatusRewriting       ExperimentStatus = "rewriting"
	StatusWaitingExtended ExperimentStatus = "waiting-extended"
)

type KeywordSource string

const (
	SourceGSCExisting KeywordSource = "gsc-existing"
	SourceAIGenerated KeywordSource = "ai-generated"
	SourceHybrid      KeywordSource = "hybrid"
)

// StatsSnapshot is one Search Console reading for a (page, keyword) pair
// over the lookback window.
type StatsSnapshot struct {
	Impressions int       `json:"impressions"`
	Clicks      int       `json:"clicks"`
	CTR         float64   `json:"ctr"`
	Position    float64   `json:"position"`
	CapturedAt  time.Time `json:"captured_at"`
}

// KeywordTrial records a keyword that was tried on a page at some point.
type KeywordTrial struct {
	Keyword  string        `json:"keyword"`
	Source   KeywordSource `json:"source"`
	TestedAt time.Time     `json:"tested_at"`
}

// Experiment tracks one page's optimization cycle for one user.
// Exactly one pre/post stats pair is live per cycle; archiving into the
// archives table always happens before the live fields are cleared.
type Experiment struct {
	UserID         string
	PageURL        string
	Status         ExperimentStatus
	CurrentKeyword string
	KeywordSource  KeywordSource

	// Current page copy, captured so optimize-meta can archive the text
	// it is about to replace.
	Title           string
	MetaDescription string

	ImplementedAt    *time.Time
	PreStats         *StatsSnapshot
	PostStats        *StatsSnapshot
	PostStatsHistory []StatsSnapshot
	NextUpdateDue    *time.Time

	ExtendedDeadline  *time.Time
	ExtendedTotalDays int

	// Every keyword ever tried on this page, oldest first, append-only.
	KeywordHistory []KeywordTrial

	// Archived cycles (keyword pivots, meta optimizations, rewrites),
	// oldest first, append-only.
	Archives []ArchiveEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ArchiveKind string

const (
	KindKeyword ArchiveKind = "keyword"
	KindMeta    ArchiveKind = "meta"
	KindRewrite ArchiveKind = "rewrite"
)

// ArchiveEntry is a full stat snapshot of a cycle, frozen at the moment it
// was abandoned. Kind discriminates which history it belongs to; the
// kind-specific fields are zero otherwise.
type ArchiveEntry struct {
	ID   string      `json:"id"`
	Kind ArchiveKind `json:"kind"`

	Keyword    string        `json:"keyword"`
	Source     KeywordSource `json:"source,omitempty"`
	ArchivedAt time.Time     `json:"archived_at"`

	ImplementedAt    *time.Time      `json:"implemented_at,omitempty"`
	PreStats         *StatsSnapshot  `json:"pre_stats,omitempty"`
	PostStats        *StatsSnapshot  `json:"post_stats,omitempty"`
	PostStatsHistory []StatsSnapshot `json:"post_stats_history,omitempty"`
	DaysTracked      int             `json:"days_tracked"`

	// Meta optimization only.
	Reason          string `json:"reason,omitempty"`
	PrevTitle       string `json:"prev_title,omitempty"`
	PrevDescription string `json:"prev_description,omitempty"`

	// Rewrite only: last measured position/impressions at confirm time.
	Position    float64 `json:"position,omitempty"`
	Impressions int     `json:"impressions,omitempty"`
}

// KeywordStatsHistory returns the archived keyword cycles, oldest first.
func (e *Experiment) KeywordStatsHistory() []ArchiveEntry {
	return e.archivesOfKind(KindKeyword)
}

// MetaOptimizationHistory returns the archived meta optimizations.
func (e *Experiment) MetaOptimizationHistory() []ArchiveEntry {
	return e.archivesOfKind(KindMeta)
}

// RewriteHistory returns the archived rewrites.
func (e *Experiment) RewriteHistory() []ArchiveEntry {
	return e.archivesOfKind(KindRewrite)
}

func (e *Experiment) archivesOfKind(kind ArchiveKind) []ArchiveEntry {
	var out []ArchiveEntry
	for _, a := range e.Archives {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// PivotCount is the number of keywords previously abandoned on this page.
func (e *Experiment) PivotCount() int {
	return len(e.KeywordHistory)
}

// KeywordAssignment binds one focus keyword to one page for a user.
// Keyword preserves the user's original casing; matching is
// case-insensitive.
type KeywordAssignment struct {
	Keyword string
	PageURL string
}
