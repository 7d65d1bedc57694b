package call

import (
	"time"

	"github.com/volatiletech/null/v8"
)

var NowFunc = time.Now // mockable

const day = 24 * time.Hour

// Fixed timeline offsets. The two leading phases hang off published_at; the
// four trailing ones chain off closed_at and each other.
const (
	publicationDuration = 7 * day

	applicationOffset   = 7 * day // after published_at
	applicationDuration = 30 * day

	provisionalOffset   = 15 * day // after closed_at
	provisionalDuration = 7 * day

	appealsOffset   = 1 * day // after provisional end
	appealsDuration = 10 * day

	finalOffset   = 5 * day // after appeals end
	finalDuration = 7 * day

	waiverOffset   = 7 * day // after final end
	waiverDuration = 14 * day
)

var phaseNames = map[string]string{
	PhasePublication: "Publicación de la convocatoria",
	PhaseApplication: "Presentación de solicitudes",
	PhaseProvisional: "Listado provisional de personas seleccionadas",
	PhaseAppeals:     "Periodo de alegaciones",
	PhaseFinal:       "Listado definitivo de personas seleccionadas",
	PhaseWaiver:      "Renuncias y lista de espera",
}

var phaseDescriptions = map[string]string{
	PhasePublication: "Publicación de las bases de la convocatoria en el tablón y la web del centro.",
	PhaseApplication: "Plazo de presentación de solicitudes a través de la secretaría del centro.",
	PhaseProvisional: "Publicación del listado provisional de personas seleccionadas y suplentes.",
	PhaseAppeals:     "Plazo para presentar alegaciones al listado provisional.",
	PhaseFinal:       "Publicación del listado definitivo tras la resolución de alegaciones.",
	PhaseWaiver:      "Plazo de renuncias y llamamiento de la lista de espera.",
}

// BuildTimeline derives the ordered phase sequence for `c`, deterministically.
//
// A call that was never published has no timeline. A published call gets the
// publication and application phases; once the call is closed the four
// post-closure phases are chained onto closed_at. The phase whose window
// contains `now` is flagged current while the call is open, under the same
// rule CurrentPhase applies; the stored flag is only ever written through
// Repository.SetCurrentPhase, which persists that same computation.
func BuildTimeline(c Call, now time.Time) []CallPhase {
	if !c.PublishedAt.Valid {
		return nil
	}
	published := c.PublishedAt.Time

	appStart := published.Add(applicationOffset)
	appEnd := appStart.Add(applicationDuration)

	phases := []CallPhase{
		newPhase(c, PhasePublication, 1, published, published.Add(publicationDuration)),
		newPhase(c, PhaseApplication, 2, appStart, appEnd),
	}
	if current := CurrentPhase(c, phases, now); current != nil {
		current.IsCurrent = true
	}

	if !c.IsClosed() {
		return phases
	}

	// closed_at may be unset on calls force-marked cerrada; fall back to the
	// application window end so the chain stays deterministic.
	closed := c.ClosedAt.Time
	if !c.ClosedAt.Valid {
		closed = appEnd
	}

	provStart := closed.Add(provisionalOffset)
	provEnd := provStart.Add(provisionalDuration)
	appealsStart := provEnd.Add(appealsOffset)
	appealsEnd := appealsStart.Add(appealsDuration)
	finalStart := appealsEnd.Add(finalOffset)
	finalEnd := finalStart.Add(finalDuration)
	waiverStart := finalEnd.Add(waiverOffset)
	waiverEnd := waiverStart.Add(waiverDuration)

	return append(phases,
		newPhase(c, PhaseProvisional, 3, provStart, provEnd),
		newPhase(c, PhaseAppeals, 4, appealsStart, appealsEnd),
		newPhase(c, PhaseFinal, 5, finalStart, finalEnd),
		newPhase(c, PhaseWaiver, 6, waiverStart, waiverEnd),
	)
}

func newPhase(c Call, phaseType string, order int, start, end time.Time) CallPhase {
	return CallPhase{
		CallID:      c.ID,
		Type:        phaseType,
		Name:        phaseNames[phaseType],
		Description: phaseDescriptions[phaseType],
		StartDate:   start,
		EndDate:     null.TimeFrom(end),
		Order:       order,
	}
}

// CurrentPhase returns the phase that should carry the is_current flag, or
// nil. Only phases of an open call are ever current.
func CurrentPhase(c Call, phases []CallPhase, now time.Time) *CallPhase {
	if c.Status != StatusOpen {
		return nil
	}
	for i := range phases {
		if phases[i].Contains(now) {
			return &phases[i]
		}
	}
	return nil
}

func findPhase(phases []CallPhase, phaseType string) *CallPhase {
	for i := range phases {
		if phases[i].Type == phaseType {
			return &phases[i]
		}
	}
	return nil
}
