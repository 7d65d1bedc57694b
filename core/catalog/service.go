package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/cmabris/erasmus25/core"
)

var (
	// errors
	ErrProgramNotFound  = errors.New("program not found")
	ErrYearNotFound     = errors.New("academic year not found")
	ErrCategoryNotFound = errors.New("document category not found")
	ErrLanguageNotFound = errors.New("language not found")
	ErrSettingNotFound  = errors.New("setting not found")
	ErrSlugExists       = errors.New("this slug is already in use")
	ErrCodeExists       = errors.New("this language code is already in use")
)

type (
	Repository interface {
		CheckProgramSlugUniqueness(ctx context.Context, slug string) error
		CreateProgram(ctx context.Context, prog Program) (Program, error)
		QueryAllPrograms(ctx context.Context) ([]Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		GetProgramBySlug(ctx context.Context, slug string) (Program, error)
		UpdateProgram(ctx context.Context, prog Program) (Program, error)
		DeleteProgram(ctx context.Context, id string) error

		CreateAcademicYear(ctx context.Context, year AcademicYear) (AcademicYear, error)
		QueryAllAcademicYears(ctx context.Context) ([]AcademicYear, error)
		GetAcademicYear(ctx context.Context, id string) (AcademicYear, error)
		UpdateAcademicYear(ctx context.Context, year AcademicYear) (AcademicYear, error)
		ClearCurrentAcademicYear(ctx context.Context) error

		CheckCategorySlugUniqueness(ctx context.Context, slug string) error
		CreateCategory(ctx context.Context, cat DocumentCategory) (DocumentCategory, error)
		QueryAllCategories(ctx context.Context) ([]DocumentCategory, error)
		GetCategory(ctx context.Context, id string) (DocumentCategory, error)
		DeleteCategory(ctx context.Context, id string) error

		CheckLanguageCodeUniqueness(ctx context.Context, code string) error
		CreateLanguage(ctx context.Context, lang Language) (Language, error)
		QueryAllLanguages(ctx context.Context) ([]Language, error)
		DeleteLanguage(ctx context.Context, id string) error

		QueryAllSettings(ctx context.Context) ([]SiteSetting, error)
		GetSettingByKey(ctx context.Context, key string) (SiteSetting, error)
		UpsertSetting(ctx context.Context, setting SiteSetting) (SiteSetting, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkProgramSlug(slug string) error {
	if err := svc.repo.CheckProgramSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkCategorySlug(slug string) error {
	if err := svc.repo.CheckCategorySlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkLanguageCode(code string) error {
	if err := svc.repo.CheckLanguageCodeUniqueness(context.Background(), code); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Programs

func (svc *Service) CreateProgram(ctx context.Context, np NewProgram) (Program, error) {
	now := time.Now().UTC()
	return svc.repo.CreateProgram(ctx, Program{
		Name:        np.Name,
		Slug:        np.Slug,
		Description: np.Description,
		Color:       np.Color,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) QueryPrograms(ctx context.Context) ([]Program, error) {
	return svc.repo.QueryAllPrograms(ctx)
}

func (svc *Service) GetProgram(ctx context.Context, id string) (Program, error) {
	return svc.repo.GetProgram(ctx, id)
}

func (svc *Service) GetProgramBySlug(ctx context.Context, slug string) (Program, error) {
	return svc.repo.GetProgramBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *Service) UpdateProgram(ctx context.Context, prog Program) (Program, error) {
	prog.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProgram(ctx, prog)
}

func (svc *Service) DeleteProgram(ctx context.Context, id string) error {
	return svc.repo.DeleteProgram(ctx, id)
}

// Academic years

func (svc *Service) CreateAcademicYear(ctx context.Context, ny NewAcademicYear) (AcademicYear, error) {
	if ny.IsCurrent {
		if err := svc.repo.ClearCurrentAcademicYear(ctx); err != nil {
			return AcademicYear{}, err
		}
	}
	now := time.Now().UTC()
	return svc.repo.CreateAcademicYear(ctx, AcademicYear{
		Name:      ny.Name,
		StartDate: ny.StartDate,
		EndDate:   ny.EndDate,
		IsCurrent: ny.IsCurrent,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QueryAcademicYears(ctx context.Context) ([]AcademicYear, error) {
	return svc.repo.QueryAllAcademicYears(ctx)
}

func (svc *Service) GetAcademicYear(ctx context.Context, id string) (AcademicYear, error) {
	return svc.repo.GetAcademicYear(ctx, id)
}

// SetCurrentAcademicYear marks `id` as the current year and clears the flag
// on every other year.
func (svc *Service) SetCurrentAcademicYear(ctx context.Context, id string) (AcademicYear, error) {
	year, err := svc.repo.GetAcademicYear(ctx, id)
	if err != nil {
		return AcademicYear{}, err
	}
	if err := svc.repo.ClearCurrentAcademicYear(ctx); err != nil {
		return AcademicYear{}, err
	}
	year.IsCurrent = true
	year.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAcademicYear(ctx, year)
}

// Document categories

func (svc *Service) CreateCategory(ctx context.Context, nc NewDocumentCategory) (DocumentCategory, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCategory(ctx, DocumentCategory{
		Name:        nc.Name,
		Slug:        nc.Slug,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) QueryCategories(ctx context.Context) ([]DocumentCategory, error) {
	return svc.repo.QueryAllCategories(ctx)
}

func (svc *Service) GetCategory(ctx context.Context, id string) (DocumentCategory, error) {
	return svc.repo.GetCategory(ctx, id)
}

func (svc *Service) DeleteCategory(ctx context.Context, id string) error {
	return svc.repo.DeleteCategory(ctx, id)
}

// Languages

func (svc *Service) CreateLanguage(ctx context.Context, nl NewLanguage) (Language, error) {
	now := time.Now().UTC()
	return svc.repo.CreateLanguage(ctx, Language{
		Code:      nl.Code,
		Name:      nl.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QueryLanguages(ctx context.Context) ([]Language, error) {
	return svc.repo.QueryAllLanguages(ctx)
}

func (svc *Service) DeleteLanguage(ctx context.Context, id string) error {
	return svc.repo.DeleteLanguage(ctx, id)
}

// Site settings

func (svc *Service) QuerySettings(ctx context.Context) ([]SiteSetting, error) {
	return svc.repo.QueryAllSettings(ctx)
}

func (svc *Service) GetSetting(ctx context.Context, key string) (SiteSetting, error) {
	return svc.repo.GetSettingByKey(ctx, core.CleanString(key, true /* lower */))
}

// SetSetting creates or overwrites the setting under `key`.
func (svc *Service) SetSetting(ctx context.Context, key, value string) (SiteSetting, error) {
	key = core.CleanString(key, true /* lower */)
	if key == "" {
		return SiteSetting{}, core.NewValidationError(nil, core.FieldError{Field: "key", Error: "this field is required"})
	}
	return svc.repo.UpsertSetting(ctx, SiteSetting{
		Key:       key,
		Value:     core.CleanString(value),
		UpdatedAt: time.Now().UTC(),
	})
}
