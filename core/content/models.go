package content

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core"
)

// State is the lifecycle state of a soft-deletable content record.
// active -> trashed is reversible; trashed -> purged is terminal.
type State string

const (
	StateActive  State = "active"
	StateTrashed State = "trashed"
	StatePurged  State = "purged"
)

// Document is a downloadable document published on the portal.
type Document struct {
	ID             string       `json:"id"`
	CategoryID     string       `json:"category_id"`
	ProgramID      null.String  `json:"program_id"`
	AcademicYearID null.String  `json:"academic_year_id"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Description    string       `json:"description"`
	State          State        `json:"state"`
	TrashedAt      null.Time    `json:"trashed_at"`
	Media          *MediaHandle `json:"media,omitempty"`
	Consents       int          `json:"consents"` // dependent media consents
	CreatedBy      string       `json:"created_by"`
	UpdatedBy      string       `json:"updated_by"`
	CreatedAt      time.Time    `json:"created_at"` // UTC
	UpdatedAt      time.Time    `json:"updated_at"` // UTC
}

func (d Document) DependentCount() int { return d.Consents }

// NewsPost is a news article published on the portal.
type NewsPost struct {
	ID             string       `json:"id"`
	ProgramID      null.String  `json:"program_id"`
	AcademicYearID null.String  `json:"academic_year_id"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Summary        string       `json:"summary"`
	Body           string       `json:"body"`
	PublishedAt    null.Time    `json:"published_at"`
	State          State        `json:"state"`
	TrashedAt      null.Time    `json:"trashed_at"`
	Cover          *MediaHandle `json:"cover,omitempty"`
	Consents       int          `json:"consents"`
	CreatedBy      string       `json:"created_by"`
	UpdatedBy      string       `json:"updated_by"`
	CreatedAt      time.Time    `json:"created_at"` // UTC
	UpdatedAt      time.Time    `json:"updated_at"` // UTC
}

func (n NewsPost) DependentCount() int { return n.Consents }

// ErasmusEvent is a calendar event (info session, farewell, exhibition...).
type ErasmusEvent struct {
	ID             string      `json:"id"`
	ProgramID      null.String `json:"program_id"`
	AcademicYearID null.String `json:"academic_year_id"`
	Title          string      `json:"title"`
	Slug           string      `json:"slug"`
	Location       string      `json:"location"`
	StartsAt       time.Time   `json:"starts_at"`
	EndsAt         null.Time   `json:"ends_at"`
	Description    string      `json:"description"`
	State          State       `json:"state"`
	TrashedAt      null.Time   `json:"trashed_at"`
	CreatedBy      string      `json:"created_by"`
	UpdatedBy      string      `json:"updated_by"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at"` // UTC
}

// NewsletterSubscription is an email subscription to portal updates.
type NewsletterSubscription struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	ConfirmedAt    null.Time `json:"confirmed_at"`
	UnsubscribedAt null.Time `json:"unsubscribed_at"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// MediaConsent records a person's consent to appear in a document or news
// post. Records with consents attached cannot be deleted.
type MediaConsent struct {
	ID         string      `json:"id"`
	DocumentID null.String `json:"document_id"`
	NewsPostID null.String `json:"news_post_id"`
	PersonName string      `json:"person_name"`
	GrantedAt  time.Time   `json:"granted_at"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

// NewDocument contains information needed to create a new Document.
type NewDocument struct {
	CategoryID     string `json:"category_id" form:"category_id" validate:"required"`
	ProgramID      string `json:"program_id" form:"program_id"`
	AcademicYearID string `json:"academic_year_id" form:"academic_year_id"`
	Title          string `json:"title" form:"title" validate:"required"`
	Slug           string `json:"slug" form:"slug" validate:"omitempty,slug"`
	Description    string `json:"description" form:"description"`
}

func (nd *NewDocument) Validate(svc *Service) error {
	nd.Title = core.CleanString(nd.Title)
	if nd.Slug == "" {
		nd.Slug = core.Slugify(nd.Title)
	}
	if err := core.Validate.Struct(nd); err != nil {
		return err
	}
	return svc.checkDocumentSlug(nd.Slug)
}

// NewNewsPost contains information needed to create a new NewsPost.
type NewNewsPost struct {
	ProgramID      string    `json:"program_id" form:"program_id"`
	AcademicYearID string    `json:"academic_year_id" form:"academic_year_id"`
	Title          string    `json:"title" form:"title" validate:"required"`
	Slug           string    `json:"slug" form:"slug" validate:"omitempty,slug"`
	Summary        string    `json:"summary" form:"summary" validate:"required"`
	Body           string    `json:"body" form:"body" validate:"required"`
	PublishedAt    time.Time `json:"published_at" form:"published_at"`
}

func (nn *NewNewsPost) Validate(svc *Service) error {
	nn.Title = core.CleanString(nn.Title)
	if nn.Slug == "" {
		nn.Slug = core.Slugify(nn.Title)
	}
	if err := core.Validate.Struct(nn); err != nil {
		return err
	}
	return svc.checkNewsSlug(nn.Slug)
}

// NewEvent contains information needed to create a new ErasmusEvent.
type NewEvent struct {
	ProgramID      string    `json:"program_id"`
	AcademicYearID string    `json:"academic_year_id"`
	Title          string    `json:"title" validate:"required"`
	Slug           string    `json:"slug" validate:"omitempty,slug"`
	Location       string    `json:"location" validate:"required"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	EndsAt         time.Time `json:"ends_at"`
	Description    string    `json:"description"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	if ne.Slug == "" {
		ne.Slug = core.Slugify(ne.Title)
	}
	return core.Validate.Struct(ne)
}

// NewConsent contains information needed to record a new MediaConsent.
// Exactly one of DocumentID or NewsPostID must be set.
type NewConsent struct {
	DocumentID string `json:"document_id" validate:"required_without=NewsPostID,excluded_with=NewsPostID"`
	NewsPostID string `json:"news_post_id"`
	PersonName string `json:"person_name" validate:"required"`
}

func (nc *NewConsent) Validate() error {
	nc.PersonName = core.CleanString(nc.PersonName)
	return core.Validate.Struct(nc)
}

// QueryFilter narrows content listings. Trashed records are hidden unless
// ShowDeleted is set.
type QueryFilter struct {
	Search         string `query:"search"`
	CategoryID     string `query:"category_id"`
	ProgramID      string `query:"program_id"`
	AcademicYearID string `query:"academic_year_id"`
	ShowDeleted    bool   `query:"show_deleted"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
