package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/catalog"
	dummydb "github.com/cmabris/erasmus25/storage/database/dummy"
)

func setup(t *testing.T) *catalog.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return catalog.NewService(dummydb.NewCatalogRepository(db))
}

func createYear(t *testing.T, svc *catalog.Service, name string, start time.Time, isCurrent bool) catalog.AcademicYear {
	t.Helper()

	year, err := svc.CreateAcademicYear(context.Background(), catalog.NewAcademicYear{
		Name:      name,
		StartDate: start,
		EndDate:   start.AddDate(0, 10, 0),
		IsCurrent: isCurrent,
	})
	if err != nil {
		t.Fatalf("CreateAcademicYear() failed: %v", err)
	}
	return year
}

func countCurrent(t *testing.T, svc *catalog.Service) int {
	t.Helper()

	years, err := svc.QueryAcademicYears(context.Background())
	if err != nil {
		t.Fatalf("QueryAcademicYears() failed: %v", err)
	}
	var currents int
	for _, year := range years {
		if year.IsCurrent {
			currents++
		}
	}
	return currents
}

func TestService_SetCurrentAcademicYear(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	first := createYear(t, svc, "2024-2025", time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), true)
	second := createYear(t, svc, "2025-2026", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), false)

	if got := countCurrent(t, svc); got != 1 {
		t.Fatalf("%d current years, want 1", got)
	}

	// switching current moves the flag, never duplicates it
	second, err := svc.SetCurrentAcademicYear(ctx, second.ID)
	if err != nil {
		t.Fatalf("SetCurrentAcademicYear() failed: %v", err)
	}
	if !second.IsCurrent {
		t.Error("year not marked current")
	}
	if got := countCurrent(t, svc); got != 1 {
		t.Errorf("%d current years, want 1", got)
	}
	first, err = svc.GetAcademicYear(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetAcademicYear() failed: %v", err)
	}
	if first.IsCurrent {
		t.Error("previous current year not cleared")
	}

	// creating a new current year clears the previous one too
	createYear(t, svc, "2026-2027", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), true)
	if got := countCurrent(t, svc); got != 1 {
		t.Errorf("%d current years, want 1", got)
	}
}

func TestService_CreateProgram_slugUniqueness(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	np := catalog.NewProgram{Name: "Erasmus+ KA121 VET"}
	if err := np.Validate(svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if np.Slug == "" {
		t.Error("slug not derived from the name")
	}
	if _, err := svc.CreateProgram(ctx, np); err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}

	dup := catalog.NewProgram{Name: "Otro nombre", Slug: np.Slug}
	err := dup.Validate(svc)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("duplicate slug error = %T(%v), want *core.ValidationError", err, err)
	}
}

func TestService_languages(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nl := catalog.NewLanguage{Code: " ES ", Name: "Español"}
	if err := nl.Validate(svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if nl.Code != "es" {
		t.Errorf("code = %q, want cleaned lowercase", nl.Code)
	}
	lang, err := svc.CreateLanguage(ctx, nl)
	if err != nil {
		t.Fatalf("CreateLanguage() failed: %v", err)
	}
	if !lang.IsActive {
		t.Error("new language is not active")
	}

	dup := catalog.NewLanguage{Code: "es", Name: "Castellano"}
	err = dup.Validate(svc)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("duplicate code error = %T(%v), want *core.ValidationError", err, err)
	}
}

func TestService_SetSetting(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	setting, err := svc.SetSetting(ctx, "Site_Name", "Portal Erasmus+")
	if err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}
	if setting.Key != "site_name" {
		t.Errorf("key = %q, want cleaned lowercase", setting.Key)
	}

	// same key overwrites
	updated, err := svc.SetSetting(ctx, "site_name", "Portal Erasmus+ IES")
	if err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}
	if updated.ID != setting.ID {
		t.Error("upsert minted a new record for an existing key")
	}
	got, err := svc.GetSetting(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetSetting() failed: %v", err)
	}
	if got.Value != "Portal Erasmus+ IES" {
		t.Errorf("value = %q, want updated", got.Value)
	}

	if _, err = svc.GetSetting(ctx, "missing"); err != catalog.ErrSettingNotFound {
		t.Errorf("GetSetting() error = %v, want %v", err, catalog.ErrSettingNotFound)
	}

	// a blank key is rejected
	if _, err = svc.SetSetting(ctx, "  ", "x"); err == nil {
		t.Error("SetSetting() with blank key succeeded")
	}
}
