// Package service aggregates log totals, recent activity and current record
// status for the stewardship dashboard. It only reads.
package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	auditmodels "stewardship/internal/auditlog/models"
	"stewardship/internal/platform/metrics"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/requestcontext"
)

type Logs interface {
	Count(ctx context.Context, filter auditmodels.Filter) (int, error)
}

type Records interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

const (
	DefaultRange = 30 * 24 * time.Hour
	RecentWindow = 7 * 24 * time.Hour
	queryTimeout = 10 * time.Second
)

// recentActions selects the actions counted as recent activity per log.
var recentActions = map[auditmodels.Kind][]auditmodels.Action{
	auditmodels.KindOwnership: {
		auditmodels.ActionTransfer, auditmodels.ActionClaim, auditmodels.ActionRelease,
	},
	auditmodels.KindAssignment: {
		auditmodels.ActionAssign, auditmodels.ActionAssignMultiple, auditmodels.ActionAddAssignee,
	},
	auditmodels.KindAccess: {
		auditmodels.ActionGrantUser, auditmodels.ActionBulkGrantUsers,
	},
	auditmodels.KindResponsibility: {
		auditmodels.ActionAssign, auditmodels.ActionAssignMultiple,
		auditmodels.ActionDelegate, auditmodels.ActionDelegateMultiple,
		auditmodels.ActionTransfer, auditmodels.ActionTransferMultiple,
	},
}

// Range bounds the totals. To is exclusive.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type StatusCounts struct {
	Unowned                 int `json:"unowned"`
	Unassigned              int `json:"unassigned"`
	Overdue                 int `json:"overdue"`
	ExpiredResponsibilities int `json:"expired_responsibilities"`
	Restricted              int `json:"restricted"`
}

type ActorCounts struct {
	Owned                     int `json:"owned"`
	CoOwned                   int `json:"co_owned"`
	Assignments               int `json:"assignments"`
	OverdueAssignments        int `json:"overdue_assignments"`
	Responsibilities          int `json:"responsibilities"`
	SecondaryResponsibilities int `json:"secondary_responsibilities"`
}

type Dashboard struct {
	Range          Range                    `json:"range"`
	Totals         map[auditmodels.Kind]int `json:"totals"`
	RecentActivity map[auditmodels.Kind]int `json:"recent_activity"`
	Status         StatusCounts             `json:"status"`
	Mine           ActorCounts              `json:"mine"`
}

type Service struct {
	logs    Logs
	records Records
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(logs Logs, records Records, opts ...Option) *Service {
	s := &Service{
		logs:    logs,
		records: records,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve fills missing bounds: To defaults to now and From to DefaultRange
// before To.
func Resolve(from, to *time.Time, now time.Time) (Range, error) {
	r := Range{To: now}
	if to != nil {
		r.To = *to
	}
	r.From = r.To.Add(-DefaultRange)
	if from != nil {
		r.From = *from
	}
	if r.From.After(r.To) {
		return Range{}, dErrors.New(dErrors.CodeInvalidInput, "from must not be after to")
	}
	return r, nil
}

// Build computes the dashboard for the calling actor. Log counts and the
// record scan run concurrently; the first failure cancels the rest.
func (s *Service) Build(ctx context.Context, rng Range) (*Dashboard, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("dashboard", time.Since(start).Seconds())
	}()

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	totals := make([]int, len(auditmodels.AllKinds))
	recent := make([]int, len(auditmodels.AllKinds))
	recentFrom := now.Add(-RecentWindow)
	for i, kind := range auditmodels.AllKinds {
		g.Go(func() error {
			n, err := s.logs.Count(ctx, auditmodels.Filter{
				Kinds: []auditmodels.Kind{kind},
				From:  &rng.From,
				To:    &rng.To,
			})
			totals[i] = n
			return err
		})
		g.Go(func() error {
			n, err := s.logs.Count(ctx, auditmodels.Filter{
				Kinds:   []auditmodels.Kind{kind},
				Actions: recentActions[kind],
				From:    &recentFrom,
			})
			recent[i] = n
			return err
		})
	}

	var status StatusCounts
	var mine ActorCounts
	g.Go(func() error {
		records, err := s.records.List(ctx, models.Filter{})
		if err != nil {
			return err
		}
		status, mine = tally(records, actor, now)
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to build dashboard",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build dashboard")
	}

	d := &Dashboard{
		Range:          rng,
		Totals:         make(map[auditmodels.Kind]int, len(auditmodels.AllKinds)),
		RecentActivity: make(map[auditmodels.Kind]int, len(auditmodels.AllKinds)),
		Status:         status,
		Mine:           mine,
	}
	for i, kind := range auditmodels.AllKinds {
		d.Totals[kind] = totals[i]
		d.RecentActivity[kind] = recent[i]
	}
	return d, nil
}

// tally counts each capability only on records that carry it.
func tally(records []*models.Record, actor id.ActorID, now time.Time) (StatusCounts, ActorCounts) {
	var status StatusCounts
	var mine ActorCounts
	for _, r := range records {
		if o, ok := r.OwnershipState(); ok {
			if !o.IsOwned() {
				status.Unowned++
			}
			if o.IsOwner(actor) {
				mine.Owned++
			}
			if o.IsCoOwner(actor) {
				mine.CoOwned++
			}
		}
		if a, ok := r.AssignmentState(); ok {
			overdue := a.IsOverdue(now)
			if !a.IsAssigned() {
				status.Unassigned++
			}
			if overdue {
				status.Overdue++
			}
			if a.IsAssignedTo(actor) {
				mine.Assignments++
				if overdue {
					mine.OverdueAssignments++
				}
			}
		}
		if resp, ok := r.ResponsibilityState(); ok {
			if resp.IsExpired(now) {
				status.ExpiredResponsibilities++
			}
			if slices.Contains(resp.Primary, actor) {
				mine.Responsibilities++
			}
			if slices.Contains(resp.Secondary, actor) {
				mine.SecondaryResponsibilities++
			}
		}
		if acc, ok := r.AccessState(); ok && acc.Level == models.LevelRestricted {
			status.Restricted++
		}
	}
	return status, mine
}
