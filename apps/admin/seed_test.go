package main

import (
	"context"
	"testing"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
)

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	// system roles
	roles, err := cli.usrSvc.QueryRoles(ctx)
	if err != nil {
		t.Fatalf("QueryRoles() failed: %v", err)
	}
	if len(roles) != len(user.SystemRoles) {
		t.Errorf("seeded %d roles, want %d", len(roles), len(user.SystemRoles))
	}

	// admin account
	admin, err := cli.usrSvc.GetByEmail(ctx, seedAdminEmail)
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if !admin.HasRole(user.RoleAdmin) {
		t.Errorf("admin roles = %v, want %s", admin.Roles, user.RoleAdmin)
	}

	// catalog
	languages, err := cli.catalogSvc.QueryLanguages(ctx)
	if err != nil {
		t.Fatalf("QueryLanguages() failed: %v", err)
	}
	if len(languages) == 0 {
		t.Error("no languages seeded")
	}
	settings, err := cli.catalogSvc.QuerySettings(ctx)
	if err != nil {
		t.Fatalf("QuerySettings() failed: %v", err)
	}
	if len(settings) == 0 {
		t.Error("no site settings seeded")
	}
	programs, err := cli.catalogSvc.QueryPrograms(ctx)
	if err != nil {
		t.Fatalf("QueryPrograms() failed: %v", err)
	}
	if len(programs) == 0 {
		t.Error("no programs seeded")
	}
	years, err := cli.catalogSvc.QueryAcademicYears(ctx)
	if err != nil {
		t.Fatalf("QueryAcademicYears() failed: %v", err)
	}
	var currents int
	for _, year := range years {
		if year.IsCurrent {
			currents++
		}
	}
	if currents != 1 {
		t.Errorf("%d current academic years, want exactly 1", currents)
	}

	// calls: the closed one must carry phases and resolutions
	calls, err := cli.callSvc.Filter(ctx, call.QueryFilter{Status: call.StatusClosed})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("seeded %d closed calls, want 1", len(calls))
	}
	phases, err := cli.callSvc.QueryPhases(ctx, calls[0].ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}
	if len(phases) == 0 {
		t.Error("closed call has no phases")
	}
	resolutions, err := cli.callSvc.QueryResolutions(ctx, calls[0].ID)
	if err != nil {
		t.Fatalf("QueryResolutions() failed: %v", err)
	}
	if len(resolutions) == 0 {
		t.Error("closed call has no resolutions")
	}

	// a draft call remains
	drafts, err := cli.callSvc.Filter(ctx, call.QueryFilter{Status: call.StatusDraft})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if len(drafts) != 1 {
		t.Errorf("seeded %d draft calls, want 1", len(drafts))
	}

	// content
	docs, err := cli.contentSvc.FilterDocuments(ctx, content.QueryFilter{})
	if err != nil {
		t.Fatalf("FilterDocuments() failed: %v", err)
	}
	if len(docs) == 0 {
		t.Error("no documents seeded")
	}
	subs, err := cli.contentSvc.QuerySubscriptions(ctx)
	if err != nil {
		t.Fatalf("QuerySubscriptions() failed: %v", err)
	}
	if len(subs) == 0 {
		t.Error("no newsletter subscriptions seeded")
	}

	// re-running must not duplicate
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("second cli.run() failed: %v", err)
	}
	programs2, err := cli.catalogSvc.QueryPrograms(ctx)
	if err != nil {
		t.Fatalf("QueryPrograms() failed: %v", err)
	}
	if len(programs2) != len(programs) {
		t.Errorf("re-seeding duplicated programs: %d -> %d", len(programs), len(programs2))
	}
}
