package assessment

import (
	"fmt"
	"strings"
)

// View kinds carried on the wire to the UI shell.
const (
	ViewPlainText  = "plain_text"
	ViewAssessment = "assessment"
)

// View is the display model for one reply: a bare text body for plain
// replies, ordered sections for structured ones.
type View struct {
	Kind     string    `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// Section is one named block of the structured view. Lines keep the order
// received from the service; nothing is sorted or deduplicated.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Render converts a classified reply into its view model. Absent document
// sections are omitted entirely; present ones render in document order.
func Render(r Reply) View {
	if r.Kind == KindPlainText || r.Doc == nil {
		return View{Kind: ViewPlainText, Text: r.Text}
	}

	d := r.Doc
	v := View{Kind: ViewAssessment}
	add := func(title string, lines []string) {
		if len(lines) > 0 {
			v.Sections = append(v.Sections, Section{Title: title, Lines: lines})
		}
	}

	if ia := d.ImmediateAssessment; ia != nil {
		var lines []string
		if ia.Acuity != "" {
			lines = append(lines, "Acuity: "+ia.Acuity)
		}
		if ia.PrimaryConcern != "" {
			lines = append(lines, "Primary concern: "+ia.PrimaryConcern)
		}
		if ia.ClinicalReasoning != "" {
			lines = append(lines, ia.ClinicalReasoning)
		}
		add("Immediate Assessment", lines)
	}

	if len(d.CriticalActions) > 0 {
		var lines []string
		for _, a := range d.CriticalActions {
			line := a.Action
			if a.Priority != "" {
				line = a.Priority.String() + ". " + line
			}
			if a.Timeframe != "" {
				line += " (" + a.Timeframe + ")"
			}
			if a.Rationale != "" {
				line += " - " + a.Rationale
			}
			lines = append(lines, line)
		}
		add("Critical Actions", lines)
	}

	if len(d.DifferentialDiagnosis) > 0 {
		var lines []string
		for _, tier := range d.DifferentialDiagnosis {
			label := tier.Label
			if label == "" && tier.Tier != "" {
				label = "Tier " + tier.Tier.String()
			}
			if label != "" {
				lines = append(lines, label+":")
			}
			for _, dx := range tier.Diagnoses {
				line := dx.Diagnosis
				if dx.Likelihood != "" {
					line += " (" + dx.Likelihood + ")"
				}
				if dx.CantMiss {
					line += " [can't miss]"
				}
				if len(dx.Supporting) > 0 {
					line += " for: " + strings.Join(dx.Supporting, "; ")
				}
				if len(dx.Against) > 0 {
					line += " against: " + strings.Join(dx.Against, "; ")
				}
				lines = append(lines, line)
			}
		}
		add("Differential Diagnosis", lines)
	}

	if wd := d.WorkingDiagnosis; wd != nil {
		var lines []string
		if wd.Primary != "" {
			line := wd.Primary
			if wd.Confidence != "" {
				line += " (confidence: " + wd.Confidence + ")"
			}
			lines = append(lines, line)
		}
		if wd.Reasoning != "" {
			lines = append(lines, wd.Reasoning)
		}
		add("Working Diagnosis", lines)
	}

	if len(d.TreatmentPlan) > 0 {
		var lines []string
		for _, p := range d.TreatmentPlan {
			if p.Problem != "" {
				lines = append(lines, p.Problem+":")
			}
			for _, iv := range p.Interventions {
				lines = append(lines, iv)
			}
			for _, m := range p.Medications {
				lines = append(lines, formatMedication(m))
			}
		}
		add("Treatment Plan", lines)
	}

	if dp := d.Disposition; dp != nil {
		var lines []string
		if dp.LevelOfCare != "" {
			lines = append(lines, "Level of care: "+dp.LevelOfCare)
		}
		lines = append(lines, dp.Criteria...)
		if dp.Rationale != "" {
			lines = append(lines, dp.Rationale)
		}
		add("Disposition", lines)
	}

	if len(d.DischargeInstructions) > 0 {
		var lines []string
		for _, di := range d.DischargeInstructions {
			if di.Instruction != "" {
				lines = append(lines, di.Instruction)
			}
			for _, w := range di.WarningSigns {
				lines = append(lines, "Warning: "+w)
			}
			if di.FollowUp != "" {
				lines = append(lines, "Follow up: "+di.FollowUp)
			}
		}
		add("Discharge Instructions", lines)
	}

	if len(d.EvidenceBase) > 0 {
		var lines []string
		for _, e := range d.EvidenceBase {
			switch {
			case e.Source != "" && e.Finding != "":
				lines = append(lines, fmt.Sprintf("%s: %s", e.Source, e.Finding))
			case e.Source != "":
				lines = append(lines, e.Source)
			case e.Finding != "":
				lines = append(lines, e.Finding)
			}
		}
		add("Evidence Base", lines)
	}

	add("Reassessment Triggers", d.ReassessmentTriggers)

	if d.QANote != "" {
		add("Note", []string{d.QANote})
	}
	return v
}

func formatMedication(m Medication) string {
	parts := make([]string, 0, 4)
	if m.Name != "" {
		parts = append(parts, m.Name)
	}
	if m.Dose != "" {
		parts = append(parts, m.Dose)
	}
	if m.Route != "" {
		parts = append(parts, m.Route)
	}
	if m.Frequency != "" {
		parts = append(parts, m.Frequency)
	}
	return strings.Join(parts, " ")
}
