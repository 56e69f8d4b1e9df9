// Package assessment classifies raw reply text from the question-answering
// service. A reply that parses as a JSON object becomes a structured clinical
// assessment document; anything else is plain text. Unparseable input is a
// normal branch, never an error.
package assessment

import (
	"encoding/json"
	"strings"
)

// Kind tags the two reply variants.
type Kind int

const (
	KindPlainText Kind = iota
	KindStructured
)

// Reply is the classification result: either plain Text or a structured Doc.
type Reply struct {
	Kind Kind
	Text string
	Doc  *Document
}

// Document is a clinical assessment parsed from a reply body. Every section
// is independently optional; an empty Document is still a valid structured
// reply. It is derived state, recomputed from message content on display,
// never persisted.
type Document struct {
	ImmediateAssessment   *ImmediateAssessment `json:"immediate_assessment,omitempty"`
	CriticalActions       []CriticalAction     `json:"critical_actions,omitempty"`
	DifferentialDiagnosis []DiagnosisTier      `json:"differential_diagnosis,omitempty"`
	WorkingDiagnosis      *WorkingDiagnosis    `json:"working_diagnosis,omitempty"`
	TreatmentPlan         []ProblemPlan        `json:"treatment_plan,omitempty"`
	Disposition           *Disposition         `json:"disposition,omitempty"`
	DischargeInstructions []DischargeItem      `json:"discharge_instructions,omitempty"`
	EvidenceBase          []Evidence           `json:"evidence_base,omitempty"`
	ReassessmentTriggers  []string             `json:"reassessment_triggers,omitempty"`
	QANote                string               `json:"qa_note,omitempty"`
}

// ImmediateAssessment summarizes acuity and the presenting concern.
type ImmediateAssessment struct {
	Acuity            string `json:"acuity,omitempty"`
	PrimaryConcern    string `json:"primary_concern,omitempty"`
	ClinicalReasoning string `json:"clinical_reasoning,omitempty"`
}

// CriticalAction is one prioritized step. Priority is kept as json.Number so
// it renders verbatim, never re-ranked or normalized.
type CriticalAction struct {
	Priority  json.Number `json:"priority,omitempty"`
	Action    string      `json:"action,omitempty"`
	Rationale string      `json:"rationale,omitempty"`
	Timeframe string      `json:"timeframe,omitempty"`
}

// DiagnosisTier groups differential diagnoses by urgency tier.
type DiagnosisTier struct {
	Tier      json.Number `json:"tier,omitempty"`
	Label     string      `json:"label,omitempty"`
	Diagnoses []Diagnosis `json:"diagnoses,omitempty"`
}

// Diagnosis is one differential entry with its evidence.
type Diagnosis struct {
	Diagnosis  string   `json:"diagnosis,omitempty"`
	Likelihood string   `json:"likelihood,omitempty"`
	Supporting []string `json:"supporting_evidence,omitempty"`
	Against    []string `json:"against_evidence,omitempty"`
	CantMiss   bool     `json:"cant_miss,omitempty"`
}

// WorkingDiagnosis is the leading diagnosis and its reasoning.
type WorkingDiagnosis struct {
	Primary    string `json:"primary,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// ProblemPlan is the treatment plan for one identified problem.
type ProblemPlan struct {
	Problem       string       `json:"problem,omitempty"`
	Interventions []string     `json:"interventions,omitempty"`
	Medications   []Medication `json:"medications,omitempty"`
}

// Medication is one ordered drug entry.
type Medication struct {
	Name      string `json:"name,omitempty"`
	Dose      string `json:"dose,omitempty"`
	Route     string `json:"route,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Disposition states the recommended level of care and its criteria.
type Disposition struct {
	LevelOfCare string   `json:"level_of_care,omitempty"`
	Criteria    []string `json:"criteria,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
}

// DischargeItem is one discharge instruction with its warning signs.
type DischargeItem struct {
	Instruction  string   `json:"instruction,omitempty"`
	WarningSigns []string `json:"warning_signs,omitempty"`
	FollowUp     string   `json:"follow_up,omitempty"`
}

// Evidence is one supporting citation.
type Evidence struct {
	Source  string `json:"source,omitempty"`
	Finding string `json:"finding,omitempty"`
}

// Classify strips an optional code fence and parses the remainder. Any
// top-level JSON object classifies as structured; each recognized section
// then decodes independently, so one section with an unexpected shape drops
// out without demoting the whole reply to plain text. Anything that is not a
// top-level object stays plain text.
func Classify(raw string) Reply {
	candidate := stripFence(raw)
	trimmed := strings.TrimSpace(candidate)
	if !strings.HasPrefix(trimmed, "{") {
		// Numbers, strings, arrays and prose all classify as plain text.
		return Reply{Kind: KindPlainText, Text: raw}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Reply{Kind: KindPlainText, Text: raw}
	}
	doc := &Document{}
	section(fields, "immediate_assessment", &doc.ImmediateAssessment)
	section(fields, "critical_actions", &doc.CriticalActions)
	section(fields, "differential_diagnosis", &doc.DifferentialDiagnosis)
	section(fields, "working_diagnosis", &doc.WorkingDiagnosis)
	section(fields, "treatment_plan", &doc.TreatmentPlan)
	section(fields, "disposition", &doc.Disposition)
	section(fields, "discharge_instructions", &doc.DischargeInstructions)
	section(fields, "evidence_base", &doc.EvidenceBase)
	section(fields, "reassessment_triggers", &doc.ReassessmentTriggers)
	section(fields, "qa_note", &doc.QANote)
	return Reply{Kind: KindStructured, Doc: doc}
}

// section decodes one top-level field into its typed destination, leaving
// the destination zero when the field is absent or its shape does not match.
func section[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// stripFence removes a leading ``` or ```json marker and a trailing ```
// together with surrounding whitespace. Content between the markers is left
// untouched; text without a fence passes through as-is.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if rest := strings.TrimPrefix(s, "json"); rest != s {
		s = rest
	}
	s = strings.TrimLeft(s, " \t\r\n")
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		t := strings.TrimSpace(s)
		s = strings.TrimRight(strings.TrimSuffix(t, "```"), " \t\r\n")
	}
	return s
}
