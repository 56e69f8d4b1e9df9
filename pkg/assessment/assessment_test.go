package assessment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFencedJSONWithTag(t *testing.T) {
	raw := "```json\n{\"working_diagnosis\":{\"primary\":\"Migraine\"}}\n```"
	r := Classify(raw)
	require.Equal(t, KindStructured, r.Kind)
	require.NotNil(t, r.Doc)
	require.NotNil(t, r.Doc.WorkingDiagnosis)
	require.Equal(t, "Migraine", r.Doc.WorkingDiagnosis.Primary)
}

func TestClassifyFencedJSONWithoutTag(t *testing.T) {
	raw := "```\n{\"qa_note\":\"reviewed\"}\n```"
	r := Classify(raw)
	require.Equal(t, KindStructured, r.Kind)
	require.Equal(t, "reviewed", r.Doc.QANote)
}

func TestClassifyBareJSONObject(t *testing.T) {
	r := Classify(`{"immediate_assessment":{"acuity":"emergent"}}`)
	require.Equal(t, KindStructured, r.Kind)
	require.Equal(t, "emergent", r.Doc.ImmediateAssessment.Acuity)
}

func TestClassifyPlainText(t *testing.T) {
	raw := "Take two tablets and rest."
	r := Classify(raw)
	require.Equal(t, KindPlainText, r.Kind)
	require.Equal(t, raw, r.Text)
	require.Nil(t, r.Doc)
}

func TestClassifyMalformedJSON(t *testing.T) {
	raw := "{not valid json"
	require.NotPanics(t, func() {
		r := Classify(raw)
		require.Equal(t, KindPlainText, r.Kind)
		require.Equal(t, raw, r.Text)
	})
}

func TestClassifyNonObjectTopLevel(t *testing.T) {
	for _, raw := range []string{`42`, `"just a string"`, `[1,2,3]`, `null`, `true`} {
		r := Classify(raw)
		require.Equal(t, KindPlainText, r.Kind, "input %q", raw)
		require.Equal(t, raw, r.Text)
	}
}

func TestClassifyMismatchedSectionStaysStructured(t *testing.T) {
	// A wrong-shaped section drops out; the object itself stays structured.
	r := Classify(`{"qa_note": 42}`)
	require.Equal(t, KindStructured, r.Kind)
	require.Empty(t, r.Doc.QANote)

	r = Classify(`{"critical_actions": "not a list", "working_diagnosis": {"primary": "Migraine"}}`)
	require.Equal(t, KindStructured, r.Kind)
	require.Empty(t, r.Doc.CriticalActions)
	require.NotNil(t, r.Doc.WorkingDiagnosis)
	require.Equal(t, "Migraine", r.Doc.WorkingDiagnosis.Primary)
}

func TestClassifyIgnoresUnknownFields(t *testing.T) {
	r := Classify(`{"some_future_section": {"x": 1}, "qa_note": "kept"}`)
	require.Equal(t, KindStructured, r.Kind)
	require.Equal(t, "kept", r.Doc.QANote)
}

func TestClassifyEmptyObjectIsStructured(t *testing.T) {
	r := Classify(`{}`)
	require.Equal(t, KindStructured, r.Kind)
	require.NotNil(t, r.Doc)
}

func TestStripFencePreservesInnerContent(t *testing.T) {
	// Backticks inside the body must survive; only markers go.
	raw := "```json\n{\"qa_note\":\"use ``` sparingly\"}\n```"
	r := Classify(raw)
	require.Equal(t, KindStructured, r.Kind)
	require.Equal(t, "use ``` sparingly", r.Doc.QANote)
}

func TestClassifyFencedPlainTextStaysPlain(t *testing.T) {
	raw := "```\nnot json at all\n```"
	r := Classify(raw)
	require.Equal(t, KindPlainText, r.Kind)
	require.Equal(t, raw, r.Text)
}

func TestRenderPlainText(t *testing.T) {
	v := Render(Classify("Take two tablets and rest."))
	require.Equal(t, ViewPlainText, v.Kind)
	require.Equal(t, "Take two tablets and rest.", v.Text)
	require.Empty(t, v.Sections)
}

func TestRenderPreservesOrderAndPriorities(t *testing.T) {
	raw := `{
	  "critical_actions": [
	    {"priority": 3, "action": "third"},
	    {"priority": 1, "action": "first"},
	    {"priority": 1, "action": "first again"}
	  ]
	}`
	v := Render(Classify(raw))
	require.Equal(t, ViewAssessment, v.Kind)
	require.Len(t, v.Sections, 1)
	require.Equal(t, "Critical Actions", v.Sections[0].Title)
	// Order as received, priorities verbatim, duplicates kept.
	require.Equal(t, []string{"3. third", "1. first", "1. first again"}, v.Sections[0].Lines)
}

func TestRenderOmitsAbsentSections(t *testing.T) {
	raw := `{"working_diagnosis":{"primary":"Tension headache","confidence":"moderate"},"reassessment_triggers":["worsening pain","new fever"]}`
	v := Render(Classify(raw))
	require.Equal(t, ViewAssessment, v.Kind)
	require.Len(t, v.Sections, 2)
	require.Equal(t, "Working Diagnosis", v.Sections[0].Title)
	require.Equal(t, "Tension headache (confidence: moderate)", v.Sections[0].Lines[0])
	require.Equal(t, "Reassessment Triggers", v.Sections[1].Title)
	require.Equal(t, []string{"worsening pain", "new fever"}, v.Sections[1].Lines)
}

func TestRenderFullDocument(t *testing.T) {
	raw := `{
	  "immediate_assessment": {"acuity": "urgent", "primary_concern": "dehydration", "clinical_reasoning": "poor intake with vomiting"},
	  "critical_actions": [{"priority": 1, "action": "IV fluids", "timeframe": "now", "rationale": "volume depletion"}],
	  "differential_diagnosis": [
	    {"tier": 1, "label": "Life threats", "diagnoses": [
	      {"diagnosis": "DKA", "likelihood": "low", "cant_miss": true, "supporting_evidence": ["polyuria"], "against_evidence": ["no ketones"]}
	    ]},
	    {"tier": 2, "diagnoses": [{"diagnosis": "Viral gastroenteritis", "likelihood": "high"}]}
	  ],
	  "working_diagnosis": {"primary": "Viral gastroenteritis", "reasoning": "acute onset, sick contacts"},
	  "treatment_plan": [{"problem": "Vomiting", "interventions": ["small frequent sips"], "medications": [{"name": "ondansetron", "dose": "4 mg", "route": "PO", "frequency": "q8h"}]}],
	  "disposition": {"level_of_care": "home", "criteria": ["tolerating fluids"]},
	  "discharge_instructions": [{"instruction": "Rest and hydrate", "warning_signs": ["blood in vomit"], "follow_up": "PCP in 2 days"}],
	  "evidence_base": [{"source": "ACG 2016", "finding": "supportive care first-line"}],
	  "qa_note": "verified dosing"
	}`
	v := Render(Classify(raw))
	require.Equal(t, ViewAssessment, v.Kind)

	titles := make([]string, 0, len(v.Sections))
	for _, s := range v.Sections {
		titles = append(titles, s.Title)
	}
	require.Equal(t, []string{
		"Immediate Assessment",
		"Critical Actions",
		"Differential Diagnosis",
		"Working Diagnosis",
		"Treatment Plan",
		"Disposition",
		"Discharge Instructions",
		"Evidence Base",
		"Note",
	}, titles)

	require.Contains(t, v.Sections[2].Lines, "Life threats:")
	require.Contains(t, v.Sections[2].Lines[1], "DKA")
	require.Contains(t, v.Sections[2].Lines[1], "[can't miss]")
	require.Contains(t, v.Sections[4].Lines, "ondansetron 4 mg PO q8h")
}
