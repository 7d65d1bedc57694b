package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core/call"
)

type callRow struct {
	ID                string         `db:"id"`
	ProgramID         string         `db:"program_id"`
	AcademicYearID    string         `db:"academic_year_id"`
	Title             string         `db:"title"`
	Slug              string         `db:"slug"`
	Type              string         `db:"type"`
	Modality          string         `db:"modality"`
	Places            int            `db:"places"`
	Destinations      pq.StringArray `db:"destinations"`
	EstimatedStart    null.Time      `db:"estimated_start"`
	EstimatedEnd      null.Time      `db:"estimated_end"`
	Requirements      string         `db:"requirements"`
	Documentation     string         `db:"documentation"`
	SelectionCriteria string         `db:"selection_criteria"`
	Scoring           []byte         `db:"scoring"`
	Status            string         `db:"status"`
	PublishedAt       null.Time      `db:"published_at"`
	ClosedAt          null.Time      `db:"closed_at"`
	CreatedBy         string         `db:"created_by"`
	UpdatedBy         string         `db:"updated_by"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r callRow) unpack() (call.Call, error) {
	var scoring []call.ScoreItem
	if len(r.Scoring) > 0 {
		if err := json.Unmarshal(r.Scoring, &scoring); err != nil {
			return call.Call{}, errors.Wrap(err, "decoding scoring")
		}
	}
	return call.Call{
		ID:                r.ID,
		ProgramID:         r.ProgramID,
		AcademicYearID:    r.AcademicYearID,
		Title:             r.Title,
		Slug:              r.Slug,
		Type:              r.Type,
		Modality:          r.Modality,
		Places:            r.Places,
		Destinations:      r.Destinations,
		EstimatedStart:    r.EstimatedStart.Time,
		EstimatedEnd:      r.EstimatedEnd.Time,
		Requirements:      r.Requirements,
		Documentation:     r.Documentation,
		SelectionCriteria: r.SelectionCriteria,
		Scoring:           scoring,
		Status:            r.Status,
		PublishedAt:       r.PublishedAt,
		ClosedAt:          r.ClosedAt,
		CreatedBy:         r.CreatedBy,
		UpdatedBy:         r.UpdatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

type callPhaseRow struct {
	ID          string    `db:"id"`
	CallID      string    `db:"call_id"`
	Type        string    `db:"type"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	StartDate   time.Time `db:"start_date"`
	EndDate     null.Time `db:"end_date"`
	IsCurrent   bool      `db:"is_current"`
	Order       int       `db:"order"`
}

func (r callPhaseRow) unpack() call.CallPhase {
	return call.CallPhase(r)
}

type resolutionRow struct {
	ID                  string    `db:"id"`
	CallID              string    `db:"call_id"`
	CallPhaseID         string    `db:"call_phase_id"`
	Type                string    `db:"type"`
	Title               string    `db:"title"`
	Description         string    `db:"description"`
	EvaluationProcedure string    `db:"evaluation_procedure"`
	OfficialDate        time.Time `db:"official_date"`
	PublishedAt         time.Time `db:"published_at"`
	CreatedBy           string    `db:"created_by"`
	CreatedAt           time.Time `db:"created_at"`
}

func (r resolutionRow) unpack() call.Resolution {
	return call.Resolution(r)
}

type callRepository struct {
	db *sqlx.DB
}

var _ call.Repository = (*callRepository)(nil) // interface compliance check

func NewCallRepository(db *sqlx.DB) *callRepository {
	return &callRepository{db: db}
}

func (repo callRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...call.Call) error {
	query := `SELECT EXISTS (SELECT 1 FROM call WHERE slug = ?`
	args := []interface{}{slug}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, c := range excluded {
			ids = append(ids, c.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	query += `)`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "checking call slug uniqueness")
	}

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), inArgs...); err != nil {
		return errors.Wrap(err, "checking call slug uniqueness")
	}
	if exists {
		return call.ErrSlugExists
	}
	return nil
}

func (repo callRepository) CreateCall(ctx context.Context, c call.Call) (call.Call, error) {
	c.ID = uuid.New().String()
	scoring, err := json.Marshal(c.Scoring)
	if err != nil {
		return call.Call{}, errors.Wrap(err, "encoding scoring")
	}
	query := `
		INSERT INTO call (id, program_id, academic_year_id, title, slug, type, modality, places, destinations,
		                  estimated_start, estimated_end, requirements, documentation, selection_criteria,
		                  scoring, status, published_at, closed_at, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err = repo.db.ExecContext(ctx, query,
		c.ID, c.ProgramID, c.AcademicYearID, c.Title, c.Slug, c.Type, c.Modality, c.Places,
		pq.StringArray(c.Destinations),
		null.NewTime(c.EstimatedStart, !c.EstimatedStart.IsZero()), null.NewTime(c.EstimatedEnd, !c.EstimatedEnd.IsZero()),
		c.Requirements, c.Documentation, c.SelectionCriteria, scoring, c.Status,
		c.PublishedAt, c.ClosedAt, c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return call.Call{}, errors.Wrap(err, "inserting call")
	}
	return c, nil
}

func (repo callRepository) GetCall(ctx context.Context, filter call.GetFilter) (call.Call, error) {
	query := `SELECT * FROM call WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		query += `id = $1`
		arg = filter.ID
	case filter.Slug != "":
		query += `slug = $1`
		arg = filter.Slug
	default:
		return call.Call{}, call.ErrNotFound
	}

	var row callRow
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return call.Call{}, call.ErrNotFound
		}
		return call.Call{}, errors.Wrap(err, "getting call")
	}
	return row.unpack()
}

func (repo callRepository) FilterCalls(ctx context.Context, filter call.QueryFilter) ([]call.Call, error) {
	query := `SELECT * FROM call WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		query += ` AND title ILIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ProgramID != "" {
		query += ` AND program_id = ?`
		args = append(args, filter.ProgramID)
	}
	if filter.AcademicYearID != "" {
		query += ` AND academic_year_id = ?`
		args = append(args, filter.AcademicYearID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	query += ` ORDER BY created_at DESC`

	var rows []callRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering calls")
	}
	calls := make([]call.Call, 0, len(rows))
	for _, row := range rows {
		c, err := row.unpack()
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

func (repo callRepository) UpdateCall(ctx context.Context, c call.Call) (call.Call, error) {
	scoring, err := json.Marshal(c.Scoring)
	if err != nil {
		return call.Call{}, errors.Wrap(err, "encoding scoring")
	}
	query := `
		UPDATE call
		SET title = $2, places = $3, destinations = $4, estimated_start = $5, estimated_end = $6,
		    requirements = $7, documentation = $8, selection_criteria = $9, scoring = $10,
		    status = $11, published_at = $12, closed_at = $13, updated_by = $14, updated_at = $15
		WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Places, pq.StringArray(c.Destinations),
		null.NewTime(c.EstimatedStart, !c.EstimatedStart.IsZero()), null.NewTime(c.EstimatedEnd, !c.EstimatedEnd.IsZero()),
		c.Requirements, c.Documentation, c.SelectionCriteria, scoring,
		c.Status, c.PublishedAt, c.ClosedAt, c.UpdatedBy, c.UpdatedAt)
	if err != nil {
		return call.Call{}, errors.Wrap(err, "updating call")
	}
	return c, nil
}

func (repo callRepository) DeleteCall(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM call WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting call")
	}
	return nil
}

// UpsertPhases inserts or updates the phases in one transaction, keyed on
// (call_id, type, "order"). Stored ids and is_current flags survive reruns.
func (repo callRepository) UpsertPhases(ctx context.Context, phases ...call.CallPhase) ([]call.CallPhase, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "upserting phases")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO call_phase (id, call_id, type, name, description, start_date, end_date, "order")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (call_id, type, "order") DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date
		RETURNING id, is_current`

	saved := make([]call.CallPhase, 0, len(phases))
	for _, phase := range phases {
		if phase.ID == "" {
			phase.ID = uuid.New().String()
		}
		err = tx.QueryRowContext(ctx, query,
			phase.ID, phase.CallID, phase.Type, phase.Name, phase.Description,
			phase.StartDate, phase.EndDate, phase.Order).
			Scan(&phase.ID, &phase.IsCurrent)
		if err != nil {
			return nil, errors.Wrap(err, "upserting phases")
		}
		saved = append(saved, phase)
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "upserting phases")
	}
	return saved, nil
}

func (repo callRepository) QueryPhases(ctx context.Context, callID string) ([]call.CallPhase, error) {
	var rows []callPhaseRow
	query := `SELECT * FROM call_phase WHERE call_id = $1 ORDER BY "order"`
	if err := repo.db.SelectContext(ctx, &rows, query, callID); err != nil {
		return nil, errors.Wrap(err, "querying phases")
	}
	phases := make([]call.CallPhase, 0, len(rows))
	for _, row := range rows {
		phases = append(phases, row.unpack())
	}
	return phases, nil
}

// SetCurrentPhase flags phaseID current and clears every other phase of the
// call. An empty phaseID clears all flags.
func (repo callRepository) SetCurrentPhase(ctx context.Context, callID, phaseID string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "setting current phase")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `UPDATE call_phase SET is_current = FALSE WHERE call_id = $1`, callID); err != nil {
		return errors.Wrap(err, "setting current phase")
	}
	if phaseID != "" {
		if _, err = tx.ExecContext(ctx, `UPDATE call_phase SET is_current = TRUE WHERE id = $1`, phaseID); err != nil {
			return errors.Wrap(err, "setting current phase")
		}
	}
	return errors.Wrap(tx.Commit(), "setting current phase")
}

// UpsertResolutions inserts or updates the resolutions in one transaction,
// keyed on (call_id, call_phase_id, type).
func (repo callRepository) UpsertResolutions(ctx context.Context, resolutions ...call.Resolution) ([]call.Resolution, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "upserting resolutions")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO resolution (id, call_id, call_phase_id, type, title, description, evaluation_procedure,
		                        official_date, published_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (call_id, call_phase_id, type) DO UPDATE
		SET title = EXCLUDED.title, description = EXCLUDED.description,
		    evaluation_procedure = EXCLUDED.evaluation_procedure,
		    official_date = EXCLUDED.official_date, published_at = EXCLUDED.published_at
		RETURNING id, created_by, created_at`

	saved := make([]call.Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		if res.ID == "" {
			res.ID = uuid.New().String()
		}
		err = tx.QueryRowContext(ctx, query,
			res.ID, res.CallID, res.CallPhaseID, res.Type, res.Title, res.Description,
			res.EvaluationProcedure, res.OfficialDate, res.PublishedAt, res.CreatedBy, res.CreatedAt).
			Scan(&res.ID, &res.CreatedBy, &res.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "upserting resolutions")
		}
		saved = append(saved, res)
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "upserting resolutions")
	}
	return saved, nil
}

func (repo callRepository) QueryResolutions(ctx context.Context, callID string) ([]call.Resolution, error) {
	var rows []resolutionRow
	query := `SELECT * FROM resolution WHERE call_id = $1 ORDER BY official_date`
	if err := repo.db.SelectContext(ctx, &rows, query, callID); err != nil {
		return nil, errors.Wrap(err, "querying resolutions")
	}
	resolutions := make([]call.Resolution, 0, len(rows))
	for _, row := range rows {
		resolutions = append(resolutions, row.unpack())
	}
	return resolutions, nil
}
