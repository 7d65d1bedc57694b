package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProgram(t *testing.T, repo catalog.Repository, name, slug string) catalog.Program {
	t.Helper()

	now := time.Now().UTC()
	prog, err := repo.CreateProgram(context.Background(), catalog.Program{
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

func CreateAcademicYear(t *testing.T, repo catalog.Repository, name string, isCurrent bool) catalog.AcademicYear {
	t.Helper()

	now := time.Now().UTC()
	year, err := repo.CreateAcademicYear(context.Background(), catalog.AcademicYear{
		Name:      name,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		IsCurrent: isCurrent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAcademicYear() failed: %v", err)
	}
	return year
}

func CreateCategory(t *testing.T, repo catalog.Repository, name, slug string) catalog.DocumentCategory {
	t.Helper()

	now := time.Now().UTC()
	cat, err := repo.CreateCategory(context.Background(), catalog.DocumentCategory{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return cat
}

func CreateCall(t *testing.T, repo call.Repository, programID, yearID, title, slug, status string, createdBy string) call.Call {
	t.Helper()

	now := time.Now().UTC()
	c, err := repo.CreateCall(context.Background(), call.Call{
		ProgramID:      programID,
		AcademicYearID: yearID,
		Title:          title,
		Slug:           slug,
		Type:           call.TypeStudents,
		Modality:       call.ModalityShort,
		Places:         10,
		Destinations:   []string{"Italia"},
		Status:         status,
		CreatedBy:      createdBy,
		UpdatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateCall() failed: %v", err)
	}
	return c
}
