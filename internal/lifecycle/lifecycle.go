// Package lifecycle implements the transition operations on an experiment:
// implement, pivot, optimize-meta, rewrite (two-phase), and extend-wait.
// These are the only mutators of an Experiment record. Each one archives
// before it clears; losing an unarchived snapshot is a correctness bug.
//
// Nothing here serializes concurrent transitions for the same
// (user, page); callers own that (the HTTP server uses a keyed lock).
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/gsc"
	"github.com/serptrack/serptrack/internal/metrics"
	"github.com/serptrack/serptrack/internal/registry"
	"github.com/serptrack/serptrack/internal/store"
)

var (
	ErrLiveCycle      = errors.New("experiment already has a live tracking cycle")
	ErrSameKeyword    = errors.New("new keyword is the same as the current keyword")
	ErrNoMetricSource = errors.New("no metrics source configured")
)

const refreshInterval = 7 * 24 * time.Hour

// Service applies transitions against the store.
type Service struct {
	store        store.Store
	source       gsc.MetricsSource
	recrawler    gsc.Recrawler
	thresholds   engine.Thresholds
	lookbackDays int
	now          func() time.Time
}

func New(st store.Store, t engine.Thresholds) *Service {
	return &Service{
		store:        st,
		thresholds:   t,
		lookbackDays: 28,
		now:          time.Now,
	}
}

// WithMetricsSource wires the Search Console provider.
func (s *Service) WithMetricsSource(src gsc.MetricsSource, lookbackDays int) *Service {
	s.source = src
	if lookbackDays > 0 {
		s.lookbackDays = lookbackDays
	}
	return s
}

// WithRecrawler wires the best-effort recrawl hook.
func (s *Service) WithRecrawler(rc gsc.Recrawler) *Service {
	s.recrawler = rc
	return s
}

// WithClock replaces the clock; tests pin "now" with it.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Implement starts a tracking cycle: the user has edited the page for the
// keyword and wants the clock running. The baseline snapshot is fetched
// now; if the metrics source has nothing, the cycle starts without a
// baseline rather than failing.
func (s *Service) Implement(ctx context.Context, userID, pageURL, keyword string, source store.KeywordSource) (*store.Experiment, error) {
	now := s.now()

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}
	if exp != nil && exp.ImplementedAt != nil {
		return nil, ErrLiveCycle
	}

	if err := s.assignKeyword(ctx, userID, pageURL, keyword); err != nil {
		return nil, err
	}

	baseline := s.fetchSnapshot(ctx, pageURL, keyword)
	nextDue := now.Add(refreshInterval)

	if exp == nil {
		exp = &store.Experiment{
			UserID:         userID,
			PageURL:        pageURL,
			Status:         store.StatusImplemented,
			CurrentKeyword: keyword,
			KeywordSource:  source,
			ImplementedAt:  &now,
			PreStats:       baseline,
			NextUpdateDue:  &nextDue,
		}
		if err := s.store.CreateExperiment(ctx, exp); err != nil {
			return nil, err
		}
	} else {
		patch := store.Patch{
			Set: map[store.Field]any{
				store.FieldStatus:         store.StatusImplemented,
				store.FieldCurrentKeyword: keyword,
				store.FieldKeywordSource:  source,
				store.FieldImplementedAt:  now,
				store.FieldNextUpdateDue:  nextDue,
			},
			Clear: []store.Field{store.FieldPostStats, store.FieldPostStatsHistory},
		}
		if baseline != nil {
			patch.Set[store.FieldPreStats] = baseline
		} else {
			patch.Clear = append(patch.Clear, store.FieldPreStats)
		}
		if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
			return nil, err
		}
	}

	metrics.TransitionsApplied.WithLabelValues("implement").Inc()
	return s.store.LoadExperiment(ctx, userID, pageURL)
}

// Pivot abandons the current keyword for a new one. The old cycle's stats
// are archived first, then the live fields are cleared, then the keyword
// registry is updated. The registry conflict check runs before any write,
// so a taken keyword rejects the whole pivot without mutation.
func (s *Service) Pivot(ctx context.Context, userID, pageURL, newKeyword string, newSource store.KeywordSource) (*store.Experiment, error) {
	now := s.now()

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(newKeyword, exp.CurrentKeyword) {
		return nil, ErrSameKeyword
	}

	set, err := s.store.LoadAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	reg := registry.FromAssignments(set)
	if err := reg.Assign(newKeyword, pageURL); err != nil {
		return nil, err
	}

	// Archive before clear.
	history := appendTrial(exp.KeywordHistory, store.KeywordTrial{
		Keyword:  exp.CurrentKeyword,
		Source:   exp.KeywordSource,
		TestedAt: now,
	})
	if exp.PreStats != nil && exp.ImplementedAt != nil {
		entry := store.ArchiveEntry{
			ID:               uuid.NewString(),
			Kind:             store.KindKeyword,
			Keyword:          exp.CurrentKeyword,
			Source:           exp.KeywordSource,
			ArchivedAt:       now,
			ImplementedAt:    exp.ImplementedAt,
			PreStats:         exp.PreStats,
			PostStats:        exp.PostStats,
			PostStatsHistory: exp.PostStatsHistory,
			DaysTracked:      engine.DaysBetween(*exp.ImplementedAt, now),
		}
		if err := s.store.AppendArchive(ctx, userID, pageURL, entry); err != nil {
			return nil, err
		}
	}

	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldStatus:         store.StatusPivoted,
			store.FieldCurrentKeyword: newKeyword,
			store.FieldKeywordSource:  newSource,
			store.FieldKeywordHistory: history,
		},
		Clear: []store.Field{
			store.FieldPreStats,
			store.FieldPostStats,
			store.FieldPostStatsHistory,
			store.FieldImplementedAt,
			store.FieldNextUpdateDue,
		},
	}
	if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
		return nil, err
	}

	// Registry write is separate from the experiment write; a failure here
	// leaves the stores reconcilable on next read, per the persistence
	// contract.
	if err := s.store.ReplaceAssignments(ctx, userID, reg.Assignments()); err != nil {
		return nil, fmt.Errorf("experiment pivoted but registry update failed: %w", err)
	}

	s.requestRecrawl(ctx, pageURL)
	metrics.TransitionsApplied.WithLabelValues("pivot").Inc()
	return s.store.LoadExperiment(ctx, userID, pageURL)
}

// OptimizeMeta records that the user is rewriting the title/description
// only. The keyword stays; the cycle's stats and the page copy being
// replaced are archived for later comparison.
func (s *Service) OptimizeMeta(ctx context.Context, userID, pageURL, reason string) (*store.Experiment, error) {
	now := s.now()

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil {
		return nil, err
	}

	if exp.PreStats != nil && exp.ImplementedAt != nil {
		entry := store.ArchiveEntry{
			ID:               uuid.NewString(),
			Kind:             store.KindMeta,
			Keyword:          exp.CurrentKeyword,
			Source:           exp.KeywordSource,
			ArchivedAt:       now,
			ImplementedAt:    exp.ImplementedAt,
			PreStats:         exp.PreStats,
			PostStats:        exp.PostStats,
			PostStatsHistory: exp.PostStatsHistory,
			DaysTracked:      engine.DaysBetween(*exp.ImplementedAt, now),
			Reason:           reason,
			PrevTitle:        exp.Title,
			PrevDescription:  exp.MetaDescription,
		}
		if err := s.store.AppendArchive(ctx, userID, pageURL, entry); err != nil {
			return nil, err
		}
	}

	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldStatus: store.StatusMetaOptimizing,
		},
		Clear: []store.Field{
			store.FieldPreStats,
			store.FieldPostStats,
			store.FieldPostStatsHistory,
			store.FieldImplementedAt,
			store.FieldNextUpdateDue,
		},
	}
	if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
		return nil, err
	}

	s.requestRecrawl(ctx, pageURL)
	metrics.TransitionsApplied.WithLabelValues("optimize-meta").Inc()
	return s.store.LoadExperiment(ctx, userID, pageURL)
}

// ConfirmRewrite is phase two of the rewrite flow (phase one only
// generates a brief and mutates nothing). It archives the cycle and
// restarts tracking with the latest measured performance carried forward
// as the new baseline instead of discarding it.
func (s *Service) ConfirmRewrite(ctx context.Context, userID, pageURL string) (*store.Experiment, error) {
	now := s.now()

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil {
		return nil, err
	}

	if exp.PreStats != nil && exp.ImplementedAt != nil {
		entry := store.ArchiveEntry{
			ID:            uuid.NewString(),
			Kind:          store.KindRewrite,
			Keyword:       exp.CurrentKeyword,
			Source:        exp.KeywordSource,
			ArchivedAt:    now,
			ImplementedAt: exp.ImplementedAt,
			PreStats:      exp.PreStats,
			PostStats:     exp.PostStats,
			DaysTracked:   engine.DaysBetween(*exp.ImplementedAt, now),
		}
		if exp.PostStats != nil {
			entry.Position = exp.PostStats.Position
			entry.Impressions = exp.PostStats.Impressions
		}
		if err := s.store.AppendArchive(ctx, userID, pageURL, entry); err != nil {
			return nil, err
		}
	}

	// Carry the latest measured performance forward as the new baseline.
	newBaseline := exp.PostStats
	if newBaseline == nil {
		newBaseline = exp.PreStats
	}

	nextDue := now.Add(refreshInterval)
	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldStatus:        store.StatusRewriting,
			store.FieldImplementedAt: now,
			store.FieldNextUpdateDue: nextDue,
		},
		Clear: []store.Field{store.FieldPostStats, store.FieldPostStatsHistory},
	}
	if newBaseline != nil {
		patch.Set[store.FieldPreStats] = newBaseline
	} else {
		patch.Clear = append(patch.Clear, store.FieldPreStats)
	}
	if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
		return nil, err
	}

	metrics.TransitionsApplied.WithLabelValues("rewrite").Inc()
	return s.store.LoadExperiment(ctx, userID, pageURL)
}

// ExtendWait pushes the decision point out by another extension window.
// Purely additive: stats and status are untouched. The first extension
// moves the total from the implicit evaluation window to window+extension.
func (s *Service) ExtendWait(ctx context.Context, userID, pageURL string) (*store.Experiment, error) {
	now := s.now()

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil {
		return nil, err
	}

	total := exp.ExtendedTotalDays + s.thresholds.ExtendDays
	if exp.ExtendedTotalDays == 0 {
		total = s.thresholds.EvalWindowDays + s.thresholds.ExtendDays
	}
	deadline := now.Add(time.Duration(s.thresholds.ExtendDays) * 24 * time.Hour)

	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldExtendedDeadline:  deadline,
			store.FieldExtendedTotalDays: total,
		},
	}
	if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
		return nil, err
	}

	metrics.TransitionsApplied.WithLabelValues("extend-wait").Inc()
	return s.store.LoadExperiment(ctx, userID, pageURL)
}

// RefreshStats pulls a fresh snapshot for the experiment's current keyword
// and appends it to the intra-cycle history. A fetch failure is "no fresh
// data": logged, counted, and the experiment is returned unchanged.
func (s *Service) RefreshStats(ctx context.Context, userID, pageURL string) (*store.Experiment, bool, error) {
	if s.source == nil {
		return nil, false, ErrNoMetricSource
	}

	exp, err := s.store.LoadExperiment(ctx, userID, pageURL)
	if err != nil {
		return nil, false, err
	}

	snap, err := s.source.FetchStats(ctx, pageURL, exp.CurrentKeyword, s.lookbackDays)
	if err != nil {
		log.Printf("[lifecycle] stat fetch failed for %s: %v (keeping previous snapshot)", pageURL, err)
		metrics.StatRefreshFailures.Inc()
		return exp, false, nil
	}

	now := s.now()
	nextDue := now.Add(refreshInterval)
	history := append(exp.PostStatsHistory, *snap)

	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldPostStats:        snap,
			store.FieldPostStatsHistory: history,
			store.FieldNextUpdateDue:    nextDue,
		},
	}
	if err := s.store.ApplyPatch(ctx, userID, pageURL, patch); err != nil {
		return nil, false, err
	}

	metrics.StatRefreshes.Inc()
	exp, err = s.store.LoadExperiment(ctx, userID, pageURL)
	return exp, true, err
}

// RefreshAll refreshes every experiment of the user that has a live cycle.
func (s *Service) RefreshAll(ctx context.Context, userID string) (int, error) {
	exps, err := s.store.ListExperiments(ctx, userID)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, exp := range exps {
		if exp.ImplementedAt == nil {
			continue
		}
		if _, ok, err := s.RefreshStats(ctx, userID, exp.PageURL); err != nil {
			return refreshed, err
		} else if ok {
			refreshed++
		}
	}
	return refreshed, nil
}

// SetPageMeta records the page's current title and meta description so a
// later optimize-meta can archive the text it replaces.
func (s *Service) SetPageMeta(ctx context.Context, userID, pageURL, title, description string) error {
	patch := store.Patch{Set: map[store.Field]any{}}
	if title != "" {
		patch.Set[store.FieldTitle] = title
	}
	if description != "" {
		patch.Set[store.FieldMetaDescription] = description
	}
	if len(patch.Set) == 0 {
		return nil
	}
	return s.store.ApplyPatch(ctx, userID, pageURL, patch)
}

func (s *Service) assignKeyword(ctx context.Context, userID, pageURL, keyword string) error {
	set, err := s.store.LoadAssignments(ctx, userID)
	if err != nil {
		return err
	}
	reg := registry.FromAssignments(set)
	if err := reg.Assign(keyword, pageURL); err != nil {
		return err
	}
	return s.store.ReplaceAssignments(ctx, userID, reg.Assignments())
}

func (s *Service) fetchSnapshot(ctx context.Context, pageURL, keyword string) *store.StatsSnapshot {
	if s.source == nil {
		return nil
	}
	snap, err := s.source.FetchStats(ctx, pageURL, keyword, s.lookbackDays)
	if err != nil {
		log.Printf("[lifecycle] baseline fetch failed for %s: %v (starting cycle without baseline)", pageURL, err)
		metrics.StatRefreshFailures.Inc()
		return nil
	}
	return snap
}

func (s *Service) requestRecrawl(ctx context.Context, pageURL string) {
	if s.recrawler == nil {
		return
	}
	if err := s.recrawler.RequestRecrawl(ctx, pageURL); err != nil {
		log.Printf("[lifecycle] recrawl request failed for %s: %v", pageURL, err)
		metrics.RecrawlFailures.Inc()
	}
}

// appendTrial adds a trial unless the keyword is already in the history,
// matched case-insensitively, so repeated pivots never double-record.
func appendTrial(history []store.KeywordTrial, trial store.KeywordTrial) []store.KeywordTrial {
	for _, t := range history {
		if strings.EqualFold(t.Keyword, trial.Keyword) {
			return history
		}
	}
	return append(history, trial)
}
