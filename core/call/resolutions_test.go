package call

import (
	"strings"
	"testing"

	"github.com/volatiletech/null/v8"
)

func closedCallWithPhases(t *testing.T) (Call, []CallPhase) {
	t.Helper()
	c := Call{
		ID:          "c1",
		Title:       "Movilidad de alumnado KA121",
		Status:      StatusClosed,
		PublishedAt: null.TimeFrom(date(2025, 1, 1)),
		ClosedAt:    null.TimeFrom(date(2025, 3, 1)),
	}
	phases := BuildTimeline(c, date(2025, 5, 1))
	for i := range phases {
		phases[i].ID = phases[i].Type // repo would mint real ids
	}
	return c, phases
}

func TestBuildResolutions_closedCall(t *testing.T) {
	c, phases := closedCallWithPhases(t)

	resolutions := BuildResolutions(c, phases, false)

	if len(resolutions) != 2 {
		t.Fatalf("got %d resolutions, want 2 (provisional, definitivo)", len(resolutions))
	}
	prov, final := resolutions[0], resolutions[1]
	if prov.Type != ResolutionProvisional {
		t.Errorf("first type = %s, want %s", prov.Type, ResolutionProvisional)
	}
	if final.Type != ResolutionFinal {
		t.Errorf("second type = %s, want %s", final.Type, ResolutionFinal)
	}

	// official_date == published_at == parent phase start_date
	provPhase := findPhase(phases, PhaseProvisional)
	if !prov.OfficialDate.Equal(provPhase.StartDate) || !prov.PublishedAt.Equal(provPhase.StartDate) {
		t.Errorf("provisional dates = %v/%v, want %v", prov.OfficialDate, prov.PublishedAt, provPhase.StartDate)
	}
	if prov.CallPhaseID != provPhase.ID {
		t.Errorf("provisional phase id = %s, want %s", prov.CallPhaseID, provPhase.ID)
	}
	finalPhase := findPhase(phases, PhaseFinal)
	if !final.OfficialDate.Equal(finalPhase.StartDate) || !final.PublishedAt.Equal(finalPhase.StartDate) {
		t.Errorf("final dates = %v/%v, want %v", final.OfficialDate, final.PublishedAt, finalPhase.StartDate)
	}

	// evaluation text mentions the application deadline and publication date
	if !strings.Contains(prov.EvaluationProcedure, "07/02/2025") {
		t.Errorf("provisional procedure missing received date: %q", prov.EvaluationProcedure)
	}
	if !strings.Contains(prov.EvaluationProcedure, "16/03/2025") {
		t.Errorf("provisional procedure missing publication date: %q", prov.EvaluationProcedure)
	}
}

func TestBuildResolutions_appealsFiled(t *testing.T) {
	c, phases := closedCallWithPhases(t)

	resolutions := BuildResolutions(c, phases, true)

	if len(resolutions) != 3 {
		t.Fatalf("got %d resolutions, want 3", len(resolutions))
	}
	var appeals *Resolution
	for i := range resolutions {
		if resolutions[i].Type == ResolutionAppeals {
			appeals = &resolutions[i]
		}
	}
	if appeals == nil {
		t.Fatal("appeals resolution missing")
	}
	appealsPhase := findPhase(phases, PhaseAppeals)
	if !appeals.OfficialDate.Equal(appealsPhase.StartDate) {
		t.Errorf("appeals official date = %v, want %v", appeals.OfficialDate, appealsPhase.StartDate)
	}
}

func TestBuildResolutions_openCallHasNone(t *testing.T) {
	c := Call{ID: "c1", Status: StatusOpen, PublishedAt: null.TimeFrom(date(2025, 1, 1))}
	phases := BuildTimeline(c, date(2025, 1, 20))

	if resolutions := BuildResolutions(c, phases, true); len(resolutions) != 0 {
		t.Errorf("got %d resolutions for an open call, want 0", len(resolutions))
	}
}

func TestBuildResolutions_deterministic(t *testing.T) {
	c, phases := closedCallWithPhases(t)

	first := BuildResolutions(c, phases, true)
	second := BuildResolutions(c, phases, true)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("resolution %d differs between runs", i)
		}
	}
}
