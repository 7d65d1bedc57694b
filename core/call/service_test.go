package call_test

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/user"
	logsvc "github.com/cmabris/erasmus25/services/logger"
	dummydb "github.com/cmabris/erasmus25/storage/database/dummy"
)

func setup(t *testing.T) (*call.Service, call.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewCallRepository(db)
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	return call.NewService(repo, logger), repo
}

func createDraft(t *testing.T, svc *call.Service, actor user.User, slug string) call.Call {
	t.Helper()

	c, err := svc.Create(context.Background(), actor, call.NewCall{
		ProgramID:      "prog1",
		AcademicYearID: "year1",
		Title:          "Movilidad de alumnado",
		Slug:           slug,
		Type:           call.TypeStudents,
		Modality:       call.ModalityShort,
		Places:         10,
		Destinations:   []string{"Italia", "Portugal"},
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return c
}

func TestService_Publish(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	c := createDraft(t, svc, actor, "movilidad-alumnado")
	if c.Status != call.StatusDraft {
		t.Fatalf("new call status = %s, want %s", c.Status, call.StatusDraft)
	}

	c, err := svc.Publish(ctx, actor, c.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if c.Status != call.StatusOpen {
		t.Errorf("status = %s, want %s", c.Status, call.StatusOpen)
	}
	if !c.PublishedAt.Valid {
		t.Error("published_at not stamped")
	}
	if c.UpdatedBy != actor.ID {
		t.Errorf("updated_by = %s, want %s", c.UpdatedBy, actor.ID)
	}

	phases, err := svc.QueryPhases(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}
	if len(phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(phases))
	}
	if phases[0].Type != call.PhasePublication || phases[1].Type != call.PhaseApplication {
		t.Errorf("phase types = %s, %s", phases[0].Type, phases[1].Type)
	}
	// just published: the publication window is current
	if !phases[0].IsCurrent {
		t.Error("publication phase should be current right after publishing")
	}

	// publishing again is rejected
	if _, err = svc.Publish(ctx, actor, c.ID); err != call.ErrNotDraft {
		t.Errorf("second Publish() error = %v, want %v", err, call.ErrNotDraft)
	}
}

func TestService_Close(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	c := createDraft(t, svc, actor, "movilidad-personal")

	// closing a draft is rejected
	if _, err := svc.Close(ctx, actor, c.ID, false); err != call.ErrNotOpen {
		t.Fatalf("Close() on draft error = %v, want %v", err, call.ErrNotOpen)
	}

	c, err := svc.Publish(ctx, actor, c.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	c, err = svc.Close(ctx, actor, c.ID, true)
	if err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if c.Status != call.StatusClosed {
		t.Errorf("status = %s, want %s", c.Status, call.StatusClosed)
	}
	if !c.ClosedAt.Valid {
		t.Error("closed_at not stamped")
	}

	phases, err := svc.QueryPhases(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}
	if len(phases) != 6 {
		t.Fatalf("got %d phases, want 6", len(phases))
	}
	// a closed call never carries a current phase
	for _, p := range phases {
		if p.IsCurrent {
			t.Errorf("phase %s is current on a closed call", p.Type)
		}
	}

	resolutions, err := svc.QueryResolutions(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryResolutions() failed: %v", err)
	}
	// appeals were filed: provisional + appeals + final
	if len(resolutions) != 3 {
		t.Fatalf("got %d resolutions, want 3", len(resolutions))
	}
	wantTypes := []string{call.ResolutionProvisional, call.ResolutionAppeals, call.ResolutionFinal}
	for i, want := range wantTypes {
		if resolutions[i].Type != want {
			t.Errorf("resolution %d type = %s, want %s", i+1, resolutions[i].Type, want)
		}
		if resolutions[i].CreatedBy != actor.ID {
			t.Errorf("resolution %d created_by = %s, want %s", i+1, resolutions[i].CreatedBy, actor.ID)
		}
	}
}

func TestService_Close_noAppeals(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	c := createDraft(t, svc, actor, "movilidad-sin-alegaciones")
	c, err := svc.Publish(ctx, actor, c.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if _, err = svc.Close(ctx, actor, c.ID, false); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	resolutions, err := svc.QueryResolutions(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryResolutions() failed: %v", err)
	}
	if len(resolutions) != 2 {
		t.Fatalf("got %d resolutions, want 2", len(resolutions))
	}
	for _, res := range resolutions {
		if res.Type == call.ResolutionAppeals {
			t.Error("appeals resolution emitted although no appeals were filed")
		}
	}
}

func TestService_GeneratePhases_idempotent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	c := createDraft(t, svc, actor, "movilidad-regenerada")
	c, err := svc.Publish(ctx, actor, c.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	first, err := svc.QueryPhases(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}

	if _, err = svc.GeneratePhases(ctx, c); err != nil {
		t.Fatalf("GeneratePhases() failed: %v", err)
	}
	second, err := svc.QueryPhases(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}

	if len(second) != len(first) {
		t.Fatalf("regeneration changed phase count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if second[i].ID != first[i].ID {
			t.Errorf("phase %s id changed on regeneration", first[i].Type)
		}
	}
}

func TestService_RefreshCurrentPhase(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	c := createDraft(t, svc, actor, "movilidad-actual")
	c, err := svc.Publish(ctx, actor, c.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	// move the clock into the application window
	call.NowFunc = func() time.Time { return time.Now().UTC().Add(10 * 24 * time.Hour) }
	defer func() { call.NowFunc = time.Now }()

	if err = svc.RefreshCurrentPhase(ctx, c.ID); err != nil {
		t.Fatalf("RefreshCurrentPhase() failed: %v", err)
	}

	phases, err := svc.QueryPhases(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryPhases() failed: %v", err)
	}
	var current string
	var count int
	for _, p := range phases {
		if p.IsCurrent {
			current = p.Type
			count++
		}
	}
	if count != 1 {
		t.Fatalf("%d current phases, want 1", count)
	}
	if current != call.PhaseApplication {
		t.Errorf("current phase = %s, want %s", current, call.PhaseApplication)
	}
}
