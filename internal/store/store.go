package store

import "context"

// Field names an Experiment column that a Patch can set or clear.
type Field string

const (
	FieldStatus            Field = "status"
	FieldCurrentKeyword    Field = "current_keyword"
	FieldKeywordSource     Field = "keyword_source"
	FieldTitle             Field = "title"
	FieldMetaDescription   Field = "meta_description"
	FieldImplementedAt     Field = "implemented_at"
	FieldPreStats          Field = "pre_stats"
	FieldPostStats         Field = "post_stats"
	FieldPostStatsHistory  Field = "post_stats_history"
	FieldNextUpdateDue     Field = "next_update_due"
	FieldExtendedDeadline  Field = "extended_deadline"
	FieldExtendedTotalDays Field = "extended_total_days"
	FieldKeywordHistory    Field = "keyword_history"
)

// Patch is a partial update to an Experiment. Set writes new values; Clear
// deletes fields outright (the reset half of archive-then-clear). A field
// must not appear in both.
type Patch struct {
	Set   map[Field]any
	Clear []Field
}

// ExperimentStore persists Experiment records keyed by (userID, pageURL).
type ExperimentStore interface {
	LoadExperiment(ctx context.Context, userID, pageURL string) (*Experiment, error)
	ListExperiments(ctx context.Context, userID string) ([]*Experiment, error)
	CreateExperiment(ctx context.Context, exp *Experiment) error
	ApplyPatch(ctx context.Context, userID, pageURL string, p Patch) error
	AppendArchive(ctx context.Context, userID, pageURL string, entry ArchiveEntry) error
	DeleteExperiment(ctx context.Context, userID, pageURL string) error
}

// AssignmentStore persists the focus keyword registry. Writes are whole-set
// replacements, never patches, so the two index directions cannot drift.
type AssignmentStore interface {
	LoadAssignments(ctx context.Context, userID string) ([]KeywordAssignment, error)
	ReplaceAssignments(ctx context.Context, userID string, set []KeywordAssignment) error
}

// Store is the full persistence contract.
type Store interface {
	ExperimentStore
	AssignmentStore
	Close() error
}
