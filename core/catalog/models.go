package catalog

import (
	"time"

	"github.com/cmabris/erasmus25/core"
)

// Program is a mobility program offered by the school (KA121, KA131...).
type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// AcademicYear is a school year ("2025-2026"). At most one is current.
type AcademicYear struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Language is a working language of the portal ("es", "en"...).
type Language struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SiteSetting is a site-wide key/value setting (site name, contact email...).
type SiteSetting struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type DocumentCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

func (np *NewProgram) Validate(svc *Service) error {
	np.Name = core.CleanString(np.Name)
	if np.Slug == "" {
		np.Slug = core.Slugify(np.Name)
	}
	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	return svc.checkProgramSlug(np.Slug)
}

// NewAcademicYear contains information needed to create a new AcademicYear.
type NewAcademicYear struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	IsCurrent bool      `json:"is_current"`
}

func (ny *NewAcademicYear) Validate() error {
	ny.Name = core.CleanString(ny.Name)
	return core.Validate.Struct(ny)
}

// NewLanguage contains information needed to create a new Language.
type NewLanguage struct {
	Code string `json:"code" validate:"required,alpha,min=2,max=5"`
	Name string `json:"name" validate:"required"`
}

func (nl *NewLanguage) Validate(svc *Service) error {
	nl.Code = core.CleanString(nl.Code, true /* lower */)
	nl.Name = core.CleanString(nl.Name)
	if err := core.Validate.Struct(nl); err != nil {
		return err
	}
	return svc.checkLanguageCode(nl.Code)
}

// NewDocumentCategory contains information needed to create a new DocumentCategory.
type NewDocumentCategory struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description"`
}

func (nc *NewDocumentCategory) Validate(svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Name)
	}
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkCategorySlug(nc.Slug)
}
