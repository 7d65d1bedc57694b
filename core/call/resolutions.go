package call

import (
	"fmt"
	"time"
)

const resolutionDateLayout = "02/01/2006"

// BuildResolutions derives the resolution records for a closed call from its
// generated phases. Provisional and final resolutions are always emitted when
// their phase exists; an appeals resolution only when appeals were actually
// filed (explicit input, decided by the administrator closing the call).
//
// A resolution's official_date and published_at both equal its phase's
// start_date.
func BuildResolutions(c Call, phases []CallPhase, appealsFiled bool) []Resolution {
	if !c.IsClosed() {
		return nil
	}

	var received time.Time
	if app := findPhase(phases, PhaseApplication); app != nil && app.EndDate.Valid {
		received = app.EndDate.Time
	}

	var resolutions []Resolution

	if prov := findPhase(phases, PhaseProvisional); prov != nil {
		resolutions = append(resolutions, Resolution{
			CallID:      c.ID,
			CallPhaseID: prov.ID,
			Type:        ResolutionProvisional,
			Title:       fmt.Sprintf("Resolución provisional: %s", c.Title),
			Description: "Listado provisional de personas seleccionadas y suplentes.",
			EvaluationProcedure: fmt.Sprintf(
				"Recibidas las solicitudes hasta el %s, la comisión de selección ha evaluado "+
					"las candidaturas conforme al baremo publicado en las bases. "+
					"El listado provisional se publica el %s.",
				received.Format(resolutionDateLayout), prov.StartDate.Format(resolutionDateLayout)),
			OfficialDate: prov.StartDate,
			PublishedAt:  prov.StartDate,
		})
	}

	if appealsFiled {
		if appeals := findPhase(phases, PhaseAppeals); appeals != nil {
			resolutions = append(resolutions, Resolution{
				CallID:      c.ID,
				CallPhaseID: appeals.ID,
				Type:        ResolutionAppeals,
				Title:       fmt.Sprintf("Resolución de alegaciones: %s", c.Title),
				Description: "Respuesta a las alegaciones presentadas al listado provisional.",
				EvaluationProcedure: fmt.Sprintf(
					"Examinadas las alegaciones presentadas al listado provisional, "+
						"la comisión de selección resuelve y publica su respuesta el %s.",
					appeals.StartDate.Format(resolutionDateLayout)),
				OfficialDate: appeals.StartDate,
				PublishedAt:  appeals.StartDate,
			})
		}
	}

	if final := findPhase(phases, PhaseFinal); final != nil {
		resolutions = append(resolutions, Resolution{
			CallID:      c.ID,
			CallPhaseID: final.ID,
			Type:        ResolutionFinal,
			Title:       fmt.Sprintf("Resolución definitiva: %s", c.Title),
			Description: "Listado definitivo de personas seleccionadas y suplentes.",
			EvaluationProcedure: fmt.Sprintf(
				"Recibidas las solicitudes hasta el %s y resueltas las alegaciones al "+
					"listado provisional, la comisión de selección publica el listado "+
					"definitivo el %s.",
				received.Format(resolutionDateLayout), final.StartDate.Format(resolutionDateLayout)),
			OfficialDate: final.StartDate,
			PublishedAt:  final.StartDate,
		})
	}

	return resolutions
}
