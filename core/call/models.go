package call

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core"
)

// Call statuses
const (
	StatusDraft  = "borrador"
	StatusOpen   = "abierta"
	StatusClosed = "cerrada"
)

// Call types
const (
	TypeStudents = "alumnado"
	TypeStaff    = "personal"
)

// Call modalities
const (
	ModalityShort = "corta"
	ModalityLong  = "larga"
)

// Phase types, in timeline order.
const (
	PhasePublication = "publicacion"
	PhaseApplication = "solicitudes"
	PhaseProvisional = "provisional"
	PhaseAppeals     = "alegaciones"
	PhaseFinal       = "definitivo"
	PhaseWaiver      = "renuncias"
)

// Resolution types
const (
	ResolutionProvisional = "provisional"
	ResolutionFinal       = "definitivo"
	ResolutionAppeals     = "alegaciones"
)

// ScoreItem is one named weight bucket of a call's scoring table.
// Weights are expected to sum to 100.
type ScoreItem struct {
	Concept string `json:"concept" validate:"required"`
	Weight  int    `json:"weight" validate:"required,min=1,max=100"`
}

// Call represents one recruitment round for mobility grants.
type Call struct {
	ID                string      `json:"id"`
	ProgramID         string      `json:"program_id"`
	AcademicYearID    string      `json:"academic_year_id"`
	Title             string      `json:"title"`
	Slug              string      `json:"slug"`
	Type              string      `json:"type"`
	Modality          string      `json:"modality"`
	Places            int         `json:"places"`
	Destinations      []string    `json:"destinations"`
	EstimatedStart    time.Time   `json:"estimated_start"`
	EstimatedEnd      time.Time   `json:"estimated_end"`
	Requirements      string      `json:"requirements"`
	Documentation     string      `json:"documentation"`
	SelectionCriteria string      `json:"selection_criteria"`
	Scoring           []ScoreItem `json:"scoring"`
	Status            string      `json:"status"`
	PublishedAt       null.Time   `json:"published_at"`
	ClosedAt          null.Time   `json:"closed_at"`
	CreatedBy         string      `json:"created_by"`
	UpdatedBy         string      `json:"updated_by"`
	CreatedAt         time.Time   `json:"created_at"` // UTC
	UpdatedAt         time.Time   `json:"updated_at"` // UTC
}

func (c Call) IsClosed() bool {
	return c.Status == StatusClosed || c.ClosedAt.Valid
}

// CallPhase is an ordered, time-boxed stage of a Call's timeline.
// Phases are generated, never edited: only IsCurrent is recomputed.
type CallPhase struct {
	ID          string    `json:"id"`
	CallID      string    `json:"call_id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     null.Time `json:"end_date"`
	IsCurrent   bool      `json:"is_current"`
	Order       int       `json:"order"`
}

// Contains reports whether t falls within the phase's [start, end] window.
func (p CallPhase) Contains(t time.Time) bool {
	if t.Before(p.StartDate) {
		return false
	}
	return !p.EndDate.Valid || !t.After(p.EndDate.Time)
}

// Resolution is a published decision document tied to one phase of one call.
// Immutable once published.
type Resolution struct {
	ID                  string    `json:"id"`
	CallID              string    `json:"call_id"`
	CallPhaseID         string    `json:"call_phase_id"`
	Type                string    `json:"type"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	EvaluationProcedure string    `json:"evaluation_procedure"`
	OfficialDate        time.Time `json:"official_date"`
	PublishedAt         time.Time `json:"published_at"`
	CreatedBy           string    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"` // UTC
}

// NewCall contains information needed to create a new Call.
type NewCall struct {
	ProgramID         string      `json:"program_id" validate:"required"`
	AcademicYearID    string      `json:"academic_year_id" validate:"required"`
	Title             string      `json:"title" validate:"required"`
	Slug              string      `json:"slug" validate:"omitempty,slug"`
	Type              string      `json:"type" validate:"required,oneof=alumnado personal"`
	Modality          string      `json:"modality" validate:"required,oneof=corta larga"`
	Places            int         `json:"places" validate:"required,min=1"`
	Destinations      []string    `json:"destinations" validate:"required,min=1"`
	EstimatedStart    time.Time   `json:"estimated_start"`
	EstimatedEnd      time.Time   `json:"estimated_end"`
	Requirements      string      `json:"requirements"`
	Documentation     string      `json:"documentation"`
	SelectionCriteria string      `json:"selection_criteria"`
	Scoring           []ScoreItem `json:"scoring" validate:"omitempty,dive"`
}

func (nc *NewCall) Validate(svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Title)
	}
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkSlug(nc.Slug)
}

// UpdateCall defines what information may be provided to modify an existing Call.
// Status and lifecycle timestamps are driven by Publish/Close, not by update.
type UpdateCall struct {
	Title             string      `json:"title"`
	Places            int         `json:"places" validate:"omitempty,min=1"`
	Destinations      []string    `json:"destinations"`
	EstimatedStart    time.Time   `json:"estimated_start"`
	EstimatedEnd      time.Time   `json:"estimated_end"`
	Requirements      string      `json:"requirements"`
	Documentation     string      `json:"documentation"`
	SelectionCriteria string      `json:"selection_criteria"`
	Scoring           []ScoreItem `json:"scoring" validate:"omitempty,dive"`
}

func (uc *UpdateCall) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	return core.Validate.Struct(uc)
}

func init() {
	core.Validate.RegisterStructValidation(scoringStructValidation, NewCall{})
	core.Validate.RegisterStructValidation(scoringStructValidation, UpdateCall{})
	core.RegisterCustomTranslation(core.Validate, core.Translator, scoringSumTag, scoringSumText)
}

var (
	scoringSumTag  = "scoringsum"
	scoringSumText = "scoring weights must sum to 100"
)

// scoringStructValidation checks that a non-empty scoring table sums to 100.
func scoringStructValidation(sl validator.StructLevel) {
	var scoring []ScoreItem
	switch c := sl.Current().Interface().(type) {
	case NewCall:
		scoring = c.Scoring
	case UpdateCall:
		scoring = c.Scoring
	}
	if len(scoring) == 0 {
		return
	}
	var sum int
	for _, item := range scoring {
		sum += item.Weight
	}
	if sum != 100 {
		sl.ReportError(scoring, "scoring", "Scoring", scoringSumTag, "")
	}
}

// QueryFilter narrows call listings.
type QueryFilter struct {
	Search         string `query:"search"`
	ProgramID      string `query:"program_id"`
	AcademicYearID string `query:"academic_year_id"`
	Status         string `query:"status"`
	Type           string `query:"type"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single Call by one of its unique attributes.
type GetFilter struct {
	ID   string
	Slug string
}
