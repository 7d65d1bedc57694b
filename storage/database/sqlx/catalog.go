package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core/catalog"
)

type programRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	Color       string    `db:"color"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r programRow) unpack() catalog.Program {
	return catalog.Program(r)
}

type academicYearRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	IsCurrent bool      `db:"is_current"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r academicYearRow) unpack() catalog.AcademicYear {
	return catalog.AcademicYear(r)
}

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r categoryRow) unpack() catalog.DocumentCategory {
	return catalog.DocumentCategory(r)
}

type languageRow struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r languageRow) unpack() catalog.Language {
	return catalog.Language(r)
}

type settingRow struct {
	ID        string    `db:"id"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r settingRow) unpack() catalog.SiteSetting {
	return catalog.SiteSetting(r)
}

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo catalogRepository) checkSlugUniqueness(ctx context.Context, table, slug string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE slug = $1)`, slug)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return catalog.ErrSlugExists
	}
	return nil
}

// Programs

func (repo catalogRepository) CheckProgramSlugUniqueness(ctx context.Context, slug string) error {
	return repo.checkSlugUniqueness(ctx, "program", slug)
}

func (repo catalogRepository) CreateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	prog.ID = uuid.New().String()
	query := `
		INSERT INTO program (id, name, slug, description, color, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		prog.ID, prog.Name, prog.Slug, prog.Description, prog.Color, prog.IsActive, prog.CreatedAt, prog.UpdatedAt)
	if err != nil {
		return catalog.Program{}, errors.Wrap(err, "inserting program")
	}
	return prog, nil
}

func (repo catalogRepository) QueryAllPrograms(ctx context.Context) ([]catalog.Program, error) {
	var rows []programRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM program ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	programs := make([]catalog.Program, 0, len(rows))
	for _, row := range rows {
		programs = append(programs, row.unpack())
	}
	return programs, nil
}

func (repo catalogRepository) GetProgram(ctx context.Context, id string) (catalog.Program, error) {
	var row programRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM program WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Program{}, catalog.ErrProgramNotFound
		}
		return catalog.Program{}, errors.Wrap(err, "getting program")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) GetProgramBySlug(ctx context.Context, slug string) (catalog.Program, error) {
	var row programRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM program WHERE slug = $1`, slug); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Program{}, catalog.ErrProgramNotFound
		}
		return catalog.Program{}, errors.Wrap(err, "getting program")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) UpdateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	query := `
		UPDATE program
		SET name = $2, description = $3, color = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query,
		prog.ID, prog.Name, prog.Description, prog.Color, prog.IsActive, prog.UpdatedAt)
	if err != nil {
		return catalog.Program{}, errors.Wrap(err, "updating program")
	}
	return prog, nil
}

func (repo catalogRepository) DeleteProgram(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM program WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return nil
}

// Academic years

func (repo catalogRepository) CreateAcademicYear(ctx context.Context, year catalog.AcademicYear) (catalog.AcademicYear, error) {
	year.ID = uuid.New().String()
	query := `
		INSERT INTO academic_year (id, name, start_date, end_date, is_current, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		year.ID, year.Name, year.StartDate, year.EndDate, year.IsCurrent, year.CreatedAt, year.UpdatedAt)
	if err != nil {
		return catalog.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}
	return year, nil
}

func (repo catalogRepository) QueryAllAcademicYears(ctx context.Context) ([]catalog.AcademicYear, error) {
	var rows []academicYearRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM academic_year ORDER BY start_date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying academic years")
	}
	years := make([]catalog.AcademicYear, 0, len(rows))
	for _, row := range rows {
		years = append(years, row.unpack())
	}
	return years, nil
}

func (repo catalogRepository) GetAcademicYear(ctx context.Context, id string) (catalog.AcademicYear, error) {
	var row academicYearRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM academic_year WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.AcademicYear{}, catalog.ErrYearNotFound
		}
		return catalog.AcademicYear{}, errors.Wrap(err, "getting academic year")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) UpdateAcademicYear(ctx context.Context, year catalog.AcademicYear) (catalog.AcademicYear, error) {
	query := `
		UPDATE academic_year
		SET name = $2, start_date = $3, end_date = $4, is_current = $5, updated_at = $6
		WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query,
		year.ID, year.Name, year.StartDate, year.EndDate, year.IsCurrent, year.UpdatedAt)
	if err != nil {
		return catalog.AcademicYear{}, errors.Wrap(err, "updating academic year")
	}
	return year, nil
}

func (repo catalogRepository) ClearCurrentAcademicYear(ctx context.Context) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE academic_year SET is_current = FALSE WHERE is_current`); err != nil {
		return errors.Wrap(err, "clearing current academic year")
	}
	return nil
}

// Document categories

func (repo catalogRepository) CheckCategorySlugUniqueness(ctx context.Context, slug string) error {
	return repo.checkSlugUniqueness(ctx, "document_category", slug)
}

func (repo catalogRepository) CreateCategory(ctx context.Context, cat catalog.DocumentCategory) (catalog.DocumentCategory, error) {
	cat.ID = uuid.New().String()
	query := `
		INSERT INTO document_category (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		cat.ID, cat.Name, cat.Slug, cat.Description, cat.CreatedAt, cat.UpdatedAt)
	if err != nil {
		return catalog.DocumentCategory{}, errors.Wrap(err, "inserting document category")
	}
	return cat, nil
}

func (repo catalogRepository) QueryAllCategories(ctx context.Context) ([]catalog.DocumentCategory, error) {
	var rows []categoryRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM document_category ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying document categories")
	}
	categories := make([]catalog.DocumentCategory, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.unpack())
	}
	return categories, nil
}

func (repo catalogRepository) GetCategory(ctx context.Context, id string) (catalog.DocumentCategory, error) {
	var row categoryRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM document_category WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.DocumentCategory{}, catalog.ErrCategoryNotFound
		}
		return catalog.DocumentCategory{}, errors.Wrap(err, "getting document category")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM document_category WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting document category")
	}
	return nil
}

// Languages

func (repo catalogRepository) CheckLanguageCodeUniqueness(ctx context.Context, code string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM language WHERE code = $1)`, code)
	if err != nil {
		return errors.Wrap(err, "checking language code uniqueness")
	}
	if exists {
		return catalog.ErrCodeExists
	}
	return nil
}

func (repo catalogRepository) CreateLanguage(ctx context.Context, lang catalog.Language) (catalog.Language, error) {
	lang.ID = uuid.New().String()
	query := `
		INSERT INTO language (id, code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		lang.ID, lang.Code, lang.Name, lang.IsActive, lang.CreatedAt, lang.UpdatedAt)
	if err != nil {
		return catalog.Language{}, errors.Wrap(err, "inserting language")
	}
	return lang, nil
}

func (repo catalogRepository) QueryAllLanguages(ctx context.Context) ([]catalog.Language, error) {
	var rows []languageRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM language ORDER BY code`); err != nil {
		return nil, errors.Wrap(err, "querying languages")
	}
	languages := make([]catalog.Language, 0, len(rows))
	for _, row := range rows {
		languages = append(languages, row.unpack())
	}
	return languages, nil
}

func (repo catalogRepository) DeleteLanguage(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM language WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting language")
	}
	return nil
}

// Site settings

func (repo catalogRepository) QueryAllSettings(ctx context.Context) ([]catalog.SiteSetting, error) {
	var rows []settingRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM site_setting ORDER BY key`); err != nil {
		return nil, errors.Wrap(err, "querying site settings")
	}
	settings := make([]catalog.SiteSetting, 0, len(rows))
	for _, row := range rows {
		settings = append(settings, row.unpack())
	}
	return settings, nil
}

func (repo catalogRepository) GetSettingByKey(ctx context.Context, key string) (catalog.SiteSetting, error) {
	var row settingRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM site_setting WHERE key = $1`, key); err != nil {
		if err == sql.ErrNoRows {
			return catalog.SiteSetting{}, catalog.ErrSettingNotFound
		}
		return catalog.SiteSetting{}, errors.Wrap(err, "getting site setting")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) UpsertSetting(ctx context.Context, setting catalog.SiteSetting) (catalog.SiteSetting, error) {
	setting.ID = uuid.New().String()
	query := `
		INSERT INTO site_setting (id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING id`
	if err := repo.db.GetContext(ctx, &setting.ID, query,
		setting.ID, setting.Key, setting.Value, setting.UpdatedAt); err != nil {
		return catalog.SiteSetting{}, errors.Wrap(err, "upserting site setting")
	}
	return setting, nil
}
