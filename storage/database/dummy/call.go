package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cmabris/erasmus25/core/call"
)

type callRepository struct {
	db *callTables
}

var _ call.Repository = (*callRepository)(nil) // interface compliance check

func NewCallRepository(db *DB) call.Repository {
	return &callRepository{db: db.call}
}

func (repo *callRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...call.Call) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.calls {
		if c.Slug != slug {
			continue
		}
		var skip bool
		for _, excl := range excluded {
			if excl.ID == c.ID {
				skip = true
				break
			}
		}
		if !skip {
			return call.ErrSlugExists
		}
	}
	return nil
}

func (repo *callRepository) CreateCall(ctx context.Context, c call.Call) (call.Call, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.calls[c.ID] = &c
	return c, nil
}

func (repo *callRepository) GetCall(ctx context.Context, filter call.GetFilter) (call.Call, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if c, ok := repo.db.calls[filter.ID]; ok {
			return *c, nil
		}
		return call.Call{}, call.ErrNotFound
	}
	for _, c := range repo.db.calls {
		if c.Slug == filter.Slug {
			return *c, nil
		}
	}
	return call.Call{}, call.ErrNotFound
}

func (repo *callRepository) FilterCalls(ctx context.Context, filter call.QueryFilter) ([]call.Call, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	calls := make([]call.Call, 0, len(repo.db.calls))
	for _, c := range repo.db.calls {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.ProgramID != "" && c.ProgramID != filter.ProgramID {
			continue
		}
		if filter.AcademicYearID != "" && c.AcademicYearID != filter.AcademicYearID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		calls = append(calls, *c)
	}
	return calls, nil
}

func (repo *callRepository) UpdateCall(ctx context.Context, c call.Call) (call.Call, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.calls[c.ID]; !ok {
		return call.Call{}, call.ErrNotFound
	}
	repo.db.calls[c.ID] = &c
	return c, nil
}

func (repo *callRepository) DeleteCall(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.calls, id)
	for phaseID, phase := range repo.db.phases {
		if phase.CallID == id {
			delete(repo.db.phases, phaseID)
		}
	}
	for resID, res := range repo.db.resolutions {
		if res.CallID == id {
			delete(repo.db.resolutions, resID)
		}
	}
	return nil
}

func (repo *callRepository) UpsertPhases(ctx context.Context, phases ...call.CallPhase) ([]call.CallPhase, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	saved := make([]call.CallPhase, 0, len(phases))
	for _, phase := range phases {
		existing := repo.findPhase(phase.CallID, phase.Type, phase.Order)
		if existing != nil {
			// keyed match: keep id and is_current, refresh the rest
			phase.ID = existing.ID
			phase.IsCurrent = existing.IsCurrent
		} else if phase.ID == "" {
			phase.ID = uuid.New().String()
		}
		saved = append(saved, phase)
		p := phase
		repo.db.phases[phase.ID] = &p
	}
	return saved, nil
}

func (repo *callRepository) findPhase(callID, phaseType string, order int) *call.CallPhase {
	for _, phase := range repo.db.phases {
		if phase.CallID == callID && phase.Type == phaseType && phase.Order == order {
			return phase
		}
	}
	return nil
}

func (repo *callRepository) QueryPhases(ctx context.Context, callID string) ([]call.CallPhase, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	phases := make([]call.CallPhase, 0)
	for _, phase := range repo.db.phases {
		if phase.CallID == callID {
			phases = append(phases, *phase)
		}
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].Order < phases[j].Order })
	return phases, nil
}

func (repo *callRepository) SetCurrentPhase(ctx context.Context, callID, phaseID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, phase := range repo.db.phases {
		if phase.CallID == callID {
			phase.IsCurrent = phase.ID == phaseID && phaseID != ""
		}
	}
	return nil
}

func (repo *callRepository) UpsertResolutions(ctx context.Context, resolutions ...call.Resolution) ([]call.Resolution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	saved := make([]call.Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		existing := repo.findResolution(res.CallID, res.CallPhaseID, res.Type)
		if existing != nil {
			res.ID = existing.ID
			res.CreatedBy = existing.CreatedBy
			res.CreatedAt = existing.CreatedAt
		} else if res.ID == "" {
			res.ID = uuid.New().String()
		}
		saved = append(saved, res)
		r := res
		repo.db.resolutions[res.ID] = &r
	}
	return saved, nil
}

func (repo *callRepository) findResolution(callID, phaseID, resType string) *call.Resolution {
	for _, res := range repo.db.resolutions {
		if res.CallID == callID && res.CallPhaseID == phaseID && res.Type == resType {
			return res
		}
	}
	return nil
}

func (repo *callRepository) QueryResolutions(ctx context.Context, callID string) ([]call.Resolution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	resolutions := make([]call.Resolution, 0)
	for _, res := range repo.db.resolutions {
		if res.CallID == callID {
			resolutions = append(resolutions, *res)
		}
	}
	sort.Slice(resolutions, func(i, j int) bool { return resolutions[i].OfficialDate.Before(resolutions[j].OfficialDate) })
	return resolutions, nil
}
