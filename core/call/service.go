package call

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("call not found")
	ErrSlugExists        = errors.New("a call with this slug already exists")
	ErrNotDraft          = errors.New("only draft calls can be published")
	ErrNotOpen           = errors.New("only open calls can be closed")
	ErrNotPublished      = errors.New("call has not been published")
	ErrPhaseNotFound     = errors.New("call phase not found")
	ErrResolutionMissing = errors.New("resolution not found")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Call) error
		CreateCall(ctx context.Context, c Call) (Call, error)
		GetCall(ctx context.Context, filter GetFilter) (Call, error)
		FilterCalls(ctx context.Context, filter QueryFilter) ([]Call, error)
		UpdateCall(ctx context.Context, c Call) (Call, error)
		DeleteCall(ctx context.Context, id string) error

		// UpsertPhases inserts or updates phases atomically, keyed on
		// (call_id, type, order). Re-running with the same input must not
		// duplicate rows.
		UpsertPhases(ctx context.Context, phases ...CallPhase) ([]CallPhase, error)
		QueryPhases(ctx context.Context, callID string) ([]CallPhase, error)
		// SetCurrentPhase flags phaseID current and clears the flag on every
		// other phase of the call. An empty phaseID clears all flags.
		SetCurrentPhase(ctx context.Context, callID, phaseID string) error

		// UpsertResolutions inserts or updates resolutions atomically, keyed
		// on (call_id, call_phase_id, type).
		UpsertResolutions(ctx context.Context, resolutions ...Resolution) ([]Resolution, error)
		QueryResolutions(ctx context.Context, callID string) ([]Resolution, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

func (svc *Service) checkSlug(slug string, excluded ...Call) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug, excluded...); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create stores a new call in draft status. The acting user is passed in
// explicitly and recorded in the audit fields.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCall) (Call, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCall(ctx, Call{
		ProgramID:         nc.ProgramID,
		AcademicYearID:    nc.AcademicYearID,
		Title:             nc.Title,
		Slug:              nc.Slug,
		Type:              nc.Type,
		Modality:          nc.Modality,
		Places:            nc.Places,
		Destinations:      nc.Destinations,
		EstimatedStart:    nc.EstimatedStart,
		EstimatedEnd:      nc.EstimatedEnd,
		Requirements:      nc.Requirements,
		Documentation:     nc.Documentation,
		SelectionCriteria: nc.SelectionCriteria,
		Scoring:           nc.Scoring,
		Status:            StatusDraft,
		CreatedBy:         actor.ID,
		UpdatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Call, error) {
	return svc.repo.GetCall(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Call, error) {
	return svc.repo.GetCall(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Call, error) {
	filter.Clean()
	return svc.repo.FilterCalls(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCall) (Call, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Call{}, err
	}
	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Places > 0 {
		c.Places = uc.Places
	}
	if uc.Destinations != nil {
		c.Destinations = uc.Destinations
	}
	if !uc.EstimatedStart.IsZero() {
		c.EstimatedStart = uc.EstimatedStart
	}
	if !uc.EstimatedEnd.IsZero() {
		c.EstimatedEnd = uc.EstimatedEnd
	}
	if uc.Requirements != "" {
		c.Requirements = uc.Requirements
	}
	if uc.Documentation != "" {
		c.Documentation = uc.Documentation
	}
	if uc.SelectionCriteria != "" {
		c.SelectionCriteria = uc.SelectionCriteria
	}
	if uc.Scoring != nil {
		c.Scoring = uc.Scoring
	}
	c.UpdatedBy = actor.ID
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCall(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCall(ctx, id)
}

// Publish transitions a draft call to abierta, stamps published_at and
// generates the leading phases.
func (svc *Service) Publish(ctx context.Context, actor user.User, id string) (Call, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Call{}, err
	}
	if c.Status != StatusDraft {
		return Call{}, ErrNotDraft
	}

	now := time.Now().UTC()
	c.Status = StatusOpen
	c.PublishedAt = null.TimeFrom(now)
	c.UpdatedBy = actor.ID
	c.UpdatedAt = now
	if c, err = svc.repo.UpdateCall(ctx, c); err != nil {
		return Call{}, err
	}

	if _, err = svc.GeneratePhases(ctx, c); err != nil {
		return Call{}, err
	}
	return c, nil
}

// Close transitions an open call to cerrada, stamps closed_at and generates
// the post-closure phases plus their resolutions. appealsFiled records
// whether appeals were presented against the provisional listing.
func (svc *Service) Close(ctx context.Context, actor user.User, id string, appealsFiled bool) (Call, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Call{}, err
	}
	if c.Status != StatusOpen {
		return Call{}, ErrNotOpen
	}

	now := time.Now().UTC()
	c.Status = StatusClosed
	c.ClosedAt = null.TimeFrom(now)
	c.UpdatedBy = actor.ID
	c.UpdatedAt = now
	if c, err = svc.repo.UpdateCall(ctx, c); err != nil {
		return Call{}, err
	}

	phases, err := svc.GeneratePhases(ctx, c)
	if err != nil {
		return Call{}, err
	}
	if _, err = svc.GenerateResolutions(ctx, actor, c, phases, appealsFiled); err != nil {
		return Call{}, err
	}
	return c, nil
}

// GeneratePhases derives the call's timeline and upserts it. Idempotent:
// re-running yields the same rows. Calls that were never published produce
// no phases (skipped silently).
func (svc *Service) GeneratePhases(ctx context.Context, c Call) ([]CallPhase, error) {
	timeline := BuildTimeline(c, NowFunc().UTC())
	if len(timeline) == 0 {
		return nil, nil
	}
	phases, err := svc.repo.UpsertPhases(ctx, timeline...)
	if err != nil {
		return nil, err
	}
	if err := svc.refreshCurrent(ctx, c, phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// GenerateResolutions derives and upserts the resolutions for a closed
// call's phases. Idempotent on (call_id, call_phase_id, type).
func (svc *Service) GenerateResolutions(ctx context.Context, actor user.User, c Call, phases []CallPhase, appealsFiled bool) ([]Resolution, error) {
	if phases == nil {
		var err error
		if phases, err = svc.repo.QueryPhases(ctx, c.ID); err != nil {
			return nil, err
		}
	}
	resolutions := BuildResolutions(c, phases, appealsFiled)
	if len(resolutions) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	for i := range resolutions {
		resolutions[i].CreatedBy = actor.ID
		resolutions[i].CreatedAt = now
	}
	return svc.repo.UpsertResolutions(ctx, resolutions...)
}

// RefreshCurrentPhase recomputes the is_current flag on the call's phases.
// At most one phase is current, and only while the call is open.
func (svc *Service) RefreshCurrentPhase(ctx context.Context, id string) error {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	phases, err := svc.repo.QueryPhases(ctx, c.ID)
	if err != nil {
		return err
	}
	return svc.refreshCurrent(ctx, c, phases)
}

func (svc *Service) refreshCurrent(ctx context.Context, c Call, phases []CallPhase) error {
	var phaseID string
	if current := CurrentPhase(c, phases, NowFunc().UTC()); current != nil {
		phaseID = current.ID
	}
	return svc.repo.SetCurrentPhase(ctx, c.ID, phaseID)
}

func (svc *Service) QueryPhases(ctx context.Context, callID string) ([]CallPhase, error) {
	return svc.repo.QueryPhases(ctx, callID)
}

func (svc *Service) QueryResolutions(ctx context.Context, callID string) ([]Resolution, error) {
	return svc.repo.QueryResolutions(ctx, callID)
}
