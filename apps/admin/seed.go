package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
)

const seedAdminEmail = "admin@erasmus.local"

// seed populates the portal with the system roles, a default admin account
// and demo data for every module. Safe to re-run: existing records are kept.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	if err := cli.seedLanguages(ctx); err != nil {
		return err
	}
	programs, err := cli.seedPrograms(ctx)
	if err != nil {
		return err
	}
	years, err := cli.seedAcademicYears(ctx)
	if err != nil {
		return err
	}
	categories, err := cli.seedCategories(ctx)
	if err != nil {
		return err
	}
	if err := cli.seedSettings(ctx); err != nil {
		return err
	}

	if err := cli.usrSvc.SeedSystemRoles(ctx); err != nil {
		return err
	}
	fmt.Println("system roles seeded")

	admin, err := cli.seedAdmin(ctx)
	if err != nil {
		return err
	}

	if err := cli.seedCalls(ctx, admin, programs, years); err != nil {
		return err
	}
	if err := cli.seedContent(ctx, admin, programs, years, categories); err != nil {
		return err
	}
	return cli.seedNewsletter(ctx)
}

func (cli *commandLine) seedAdmin(ctx context.Context) (user.User, error) {
	admin, err := cli.usrSvc.GetByEmail(ctx, seedAdminEmail)
	if err == nil {
		return admin, nil
	}
	if err != user.ErrNotFound {
		return user.User{}, err
	}

	now := time.Now().UTC()
	admin = user.User{
		Name:      "Portal Admin",
		Email:     seedAdminEmail,
		IsActive:  true,
		Roles:     []string{user.RoleAdmin},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := admin.SetPassword("erasmus25"); err != nil {
		return user.User{}, err
	}
	admin, err = cli.usrRepo.UpdateOrCreateUser(ctx, admin)
	if err != nil {
		return user.User{}, err
	}
	fmt.Printf("admin account %s created (password %q, change it)\n", admin.Email, "erasmus25")
	return admin, nil
}

func (cli *commandLine) seedLanguages(ctx context.Context) error {
	languages, err := cli.catalogSvc.QueryLanguages(ctx)
	if err != nil {
		return err
	}
	if len(languages) > 0 {
		return nil
	}

	for _, nl := range []catalog.NewLanguage{
		{Code: "es", Name: "Español"},
		{Code: "en", Name: "English"},
		{Code: "fr", Name: "Français"},
	} {
		if _, err := cli.catalogSvc.CreateLanguage(ctx, nl); err != nil {
			return err
		}
	}
	fmt.Println("languages seeded")
	return nil
}

func (cli *commandLine) seedSettings(ctx context.Context) error {
	settings, err := cli.catalogSvc.QuerySettings(ctx)
	if err != nil {
		return err
	}
	if len(settings) > 0 {
		return nil
	}

	for key, value := range map[string]string{
		"site_name":     "Portal Erasmus+",
		"contact_email": "erasmus@erasmus.local",
	} {
		if _, err := cli.catalogSvc.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	fmt.Println("site settings seeded")
	return nil
}

func (cli *commandLine) seedPrograms(ctx context.Context) ([]catalog.Program, error) {
	programs, err := cli.catalogSvc.QueryPrograms(ctx)
	if err != nil {
		return nil, err
	}
	if len(programs) > 0 {
		return programs, nil
	}

	for _, np := range []catalog.NewProgram{
		{Name: "Erasmus+ KA121 VET", Slug: "ka121-vet", Description: "Movilidad de Formación Profesional", Color: "#1f6feb"},
		{Name: "Erasmus+ KA122 SCH", Slug: "ka122-sch", Description: "Movilidad de Educación Escolar", Color: "#2da44e"},
	} {
		prog, err := cli.catalogSvc.CreateProgram(ctx, np)
		if err != nil {
			return nil, err
		}
		programs = append(programs, prog)
	}
	fmt.Printf("%d programs seeded\n", len(programs))
	return programs, nil
}

func (cli *commandLine) seedAcademicYears(ctx context.Context) ([]catalog.AcademicYear, error) {
	years, err := cli.catalogSvc.QueryAcademicYears(ctx)
	if err != nil {
		return nil, err
	}
	if len(years) > 0 {
		return years, nil
	}

	for _, ny := range []catalog.NewAcademicYear{
		{
			Name:      "2024-2025",
			StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			Name:      "2025-2026",
			StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			IsCurrent: true,
		},
	} {
		year, err := cli.catalogSvc.CreateAcademicYear(ctx, ny)
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	fmt.Printf("%d academic years seeded\n", len(years))
	return years, nil
}

func (cli *commandLine) seedCategories(ctx context.Context) ([]catalog.DocumentCategory, error) {
	categories, err := cli.catalogSvc.QueryCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		return categories, nil
	}

	for _, nc := range []catalog.NewDocumentCategory{
		{Name: "Convocatorias", Slug: "convocatorias"},
		{Name: "Impresos", Slug: "impresos", Description: "Solicitudes y anexos"},
		{Name: "Informes", Slug: "informes"},
	} {
		cat, err := cli.catalogSvc.CreateCategory(ctx, nc)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	fmt.Printf("%d document categories seeded\n", len(categories))
	return categories, nil
}

func (cli *commandLine) seedCalls(ctx context.Context, admin user.User, programs []catalog.Program, years []catalog.AcademicYear) error {
	if len(programs) == 0 || len(years) == 0 {
		fmt.Println("warning: no programs or academic years available, skipping calls")
		return nil
	}
	existing, err := cli.callSvc.Filter(ctx, call.QueryFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	year := years[len(years)-1]
	newCalls := []call.NewCall{
		{
			ProgramID:      programs[0].ID,
			AcademicYearID: year.ID,
			Title:          "Movilidad de alumnado FP 2025",
			Slug:           "movilidad-alumnado-fp-2025",
			Type:           call.TypeStudents,
			Modality:       call.ModalityShort,
			Places:         12,
			Destinations:   []string{"Italia", "Portugal"},
			EstimatedStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EstimatedEnd:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			Scoring: []call.ScoreItem{
				{Concept: "Expediente académico", Weight: 60},
				{Concept: "Competencia lingüística", Weight: 40},
			},
		},
		{
			ProgramID:      programs[0].ID,
			AcademicYearID: year.ID,
			Title:          "Movilidad de personal 2025",
			Slug:           "movilidad-personal-2025",
			Type:           call.TypeStaff,
			Modality:       call.ModalityShort,
			Places:         4,
			Destinations:   []string{"Francia"},
		},
		{
			ProgramID:      programs[len(programs)-1].ID,
			AcademicYearID: year.ID,
			Title:          "Movilidad de larga duración 2025",
			Slug:           "movilidad-larga-duracion-2025",
			Type:           call.TypeStudents,
			Modality:       call.ModalityLong,
			Places:         2,
			Destinations:   []string{"Alemania"},
		},
	}

	for i, nc := range newCalls {
		c, err := cli.callSvc.Create(ctx, admin, nc)
		if err != nil {
			return err
		}
		if i == len(newCalls)-1 {
			continue // leave the last one in draft
		}
		if c, err = cli.callSvc.Publish(ctx, admin, c.ID); err != nil {
			return err
		}
		if i == 0 {
			// closed call with resolutions; appeals on even entries
			if _, err = cli.callSvc.Close(ctx, admin, c.ID, i%2 == 0); err != nil {
				return err
			}
		}
	}
	fmt.Printf("%d calls seeded\n", len(newCalls))
	return nil
}

func (cli *commandLine) seedContent(
	ctx context.Context,
	admin user.User,
	programs []catalog.Program,
	years []catalog.AcademicYear,
	categories []catalog.DocumentCategory,
) error {
	if len(categories) == 0 {
		fmt.Println("warning: no document categories available, skipping documents")
	} else {
		docs, err := cli.contentSvc.FilterDocuments(ctx, content.QueryFilter{})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			for _, nd := range []content.NewDocument{
				{CategoryID: categories[0].ID, Title: "Bases de la convocatoria", Slug: "bases-convocatoria"},
				{CategoryID: categories[0].ID, Title: "Anexo I - Solicitud", Slug: "anexo-i-solicitud"},
			} {
				if len(programs) > 0 {
					nd.ProgramID = programs[0].ID
				}
				if len(years) > 0 {
					nd.AcademicYearID = years[len(years)-1].ID
				}
				if _, err := cli.contentSvc.CreateDocument(ctx, admin, nd, nil); err != nil {
					return err
				}
			}
			fmt.Println("documents seeded")
		}
	}

	posts, err := cli.contentSvc.FilterNewsPosts(ctx, content.QueryFilter{})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		for _, nn := range []content.NewNewsPost{
			{
				Title:       "Abierta la convocatoria de movilidad 2025",
				Slug:        "abierta-convocatoria-2025",
				Summary:     "Publicadas las bases de la nueva convocatoria de movilidad.",
				Body:        "El centro publica las bases de la convocatoria de movilidad Erasmus+ para el curso 2025-2026.",
				PublishedAt: time.Now().UTC(),
			},
		} {
			if _, err := cli.contentSvc.CreateNewsPost(ctx, admin, nn, nil); err != nil {
				return err
			}
		}
		fmt.Println("news seeded")
	}

	events, err := cli.contentSvc.FilterEvents(ctx, content.QueryFilter{})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		for _, ne := range []content.NewEvent{
			{
				Title:    "Sesión informativa Erasmus+",
				Slug:     "sesion-informativa-erasmus",
				Location: "Salón de actos",
				StartsAt: time.Now().UTC().Add(14 * 24 * time.Hour),
			},
		} {
			if _, err := cli.contentSvc.CreateEvent(ctx, admin, ne); err != nil {
				return err
			}
		}
		fmt.Println("events seeded")
	}
	return nil
}

func (cli *commandLine) seedNewsletter(ctx context.Context) error {
	subs, err := cli.contentSvc.QuerySubscriptions(ctx)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		return nil
	}

	for _, email := range []string{"familia@example.com", "alumno@example.com"} {
		if _, err := cli.contentSvc.Subscribe(ctx, email); err != nil {
			return err
		}
	}
	fmt.Println("newsletter subscriptions seeded")
	return nil
}
