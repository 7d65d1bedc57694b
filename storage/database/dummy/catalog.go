package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/cmabris/erasmus25/core/catalog"
)

type catalogRepository struct {
	db *catalogTables
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db.catalog}
}

// Programs

func (repo *catalogRepository) CheckProgramSlugUniqueness(ctx context.Context, slug string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prog := range repo.db.programs {
		if prog.Slug == slug {
			return catalog.ErrSlugExists
		}
	}
	return nil
}

func (repo *catalogRepository) CreateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prog.ID = uuid.New().String()
	repo.db.programs[prog.ID] = &prog
	return prog, nil
}

func (repo *catalogRepository) QueryAllPrograms(ctx context.Context) ([]catalog.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	programs := make([]catalog.Program, 0, len(repo.db.programs))
	for _, prog := range repo.db.programs {
		programs = append(programs, *prog)
	}
	return programs, nil
}

func (repo *catalogRepository) GetProgram(ctx context.Context, id string) (catalog.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.programs[id]; ok {
		return *prog, nil
	}
	return catalog.Program{}, catalog.ErrProgramNotFound
}

func (repo *catalogRepository) GetProgramBySlug(ctx context.Context, slug string) (catalog.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prog := range repo.db.programs {
		if prog.Slug == slug {
			return *prog, nil
		}
	}
	return catalog.Program{}, catalog.ErrProgramNotFound
}

func (repo *catalogRepository) UpdateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.programs[prog.ID]; !ok {
		return catalog.Program{}, catalog.ErrProgramNotFound
	}
	repo.db.programs[prog.ID] = &prog
	return prog, nil
}

func (repo *catalogRepository) DeleteProgram(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.programs, id)
	return nil
}

// Academic years

func (repo *catalogRepository) CreateAcademicYear(ctx context.Context, year catalog.AcademicYear) (catalog.AcademicYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	year.ID = uuid.New().String()
	repo.db.years[year.ID] = &year
	return year, nil
}

func (repo *catalogRepository) QueryAllAcademicYears(ctx context.Context) ([]catalog.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	years := make([]catalog.AcademicYear, 0, len(repo.db.years))
	for _, year := range repo.db.years {
		years = append(years, *year)
	}
	return years, nil
}

func (repo *catalogRepository) GetAcademicYear(ctx context.Context, id string) (catalog.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if year, ok := repo.db.years[id]; ok {
		return *year, nil
	}
	return catalog.AcademicYear{}, catalog.ErrYearNotFound
}

func (repo *catalogRepository) UpdateAcademicYear(ctx context.Context, year catalog.AcademicYear) (catalog.AcademicYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.years[year.ID]; !ok {
		return catalog.AcademicYear{}, catalog.ErrYearNotFound
	}
	repo.db.years[year.ID] = &year
	return year, nil
}

func (repo *catalogRepository) ClearCurrentAcademicYear(ctx context.Context) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, year := range repo.db.years {
		year.IsCurrent = false
	}
	return nil
}

// Document categories

func (repo *catalogRepository) CheckCategorySlugUniqueness(ctx context.Context, slug string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cat := range repo.db.categories {
		if cat.Slug == slug {
			return catalog.ErrSlugExists
		}
	}
	return nil
}

func (repo *catalogRepository) CreateCategory(ctx context.Context, cat catalog.DocumentCategory) (catalog.DocumentCategory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cat.ID = uuid.New().String()
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *catalogRepository) QueryAllCategories(ctx context.Context) ([]catalog.DocumentCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	categories := make([]catalog.DocumentCategory, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		categories = append(categories, *cat)
	}
	return categories, nil
}

func (repo *catalogRepository) GetCategory(ctx context.Context, id string) (catalog.DocumentCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return *cat, nil
	}
	return catalog.DocumentCategory{}, catalog.ErrCategoryNotFound
}

func (repo *catalogRepository) DeleteCategory(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.categories, id)
	return nil
}

// Languages

func (repo *catalogRepository) CheckLanguageCodeUniqueness(ctx context.Context, code string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, lang := range repo.db.languages {
		if lang.Code == code {
			return catalog.ErrCodeExists
		}
	}
	return nil
}

func (repo *catalogRepository) CreateLanguage(ctx context.Context, lang catalog.Language) (catalog.Language, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lang.ID = uuid.New().String()
	repo.db.languages[lang.ID] = &lang
	return lang, nil
}

func (repo *catalogRepository) QueryAllLanguages(ctx context.Context) ([]catalog.Language, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	languages := make([]catalog.Language, 0, len(repo.db.languages))
	for _, lang := range repo.db.languages {
		languages = append(languages, *lang)
	}
	return languages, nil
}

func (repo *catalogRepository) DeleteLanguage(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.languages, id)
	return nil
}

// Site settings

func (repo *catalogRepository) QueryAllSettings(ctx context.Context) ([]catalog.SiteSetting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	settings := make([]catalog.SiteSetting, 0, len(repo.db.settings))
	for _, setting := range repo.db.settings {
		settings = append(settings, *setting)
	}
	return settings, nil
}

func (repo *catalogRepository) GetSettingByKey(ctx context.Context, key string) (catalog.SiteSetting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if setting, ok := repo.db.settings[key]; ok {
		return *setting, nil
	}
	return catalog.SiteSetting{}, catalog.ErrSettingNotFound
}

func (repo *catalogRepository) UpsertSetting(ctx context.Context, setting catalog.SiteSetting) (catalog.SiteSetting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.settings[setting.Key]; ok {
		setting.ID = orig.ID
	} else {
		setting.ID = uuid.New().String()
	}
	repo.db.settings[setting.Key] = &setting
	return setting, nil
}
