package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportDeterministic(t *testing.T) {
	job := Job{Number: "0042", Date: "14/10/2026", WorkType: "TRABALHO A QUENTE"}
	desc := "Solda em altura sobre o mar"
	carac := "Oxicorte, lixadeira"

	first := BuildPlan(desc, carac).Report(job, desc, carac)
	for i := 0; i < 5; i++ {
		got := BuildPlan(desc, carac).Report(job, desc, carac)
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("report changed between runs (-first +got):\n%s", diff)
		}
	}
}

func TestReportLayout(t *testing.T) {
	job := Job{Number: "0042", Date: "14/10/2026", WorkType: "TRABALHO A QUENTE"}
	report := BuildPlan("Solda em altura", "").Report(job, "Solda em altura", "")

	assert.Contains(t, report, "[PLAN] Job 0042 | Date: 14/10/2026 | Work type: TRABALHO A QUENTE")
	assert.Contains(t, report, "open_flame             = true")
	assert.Contains(t, report, "water_jetting          = false")
	assert.Contains(t, report, "every question: Não")
	assert.Contains(t, report, "Sim: Q007, Q010")

	sections := []string{"[CONTEXT]", "[EPI RADIOS]", "[EQUIPMENT BY CATEGORY]", "[QUESTIONNAIRE]", "[SUPPLEMENTARY]", "[ENVIRONMENTAL ANALYSIS]"}
	last := -1
	for _, s := range sections {
		i := strings.Index(report, s)
		require.Greater(t, i, last, "%s out of order", s)
		last = i
	}

	// Categories are printed alphabetically by normalized name.
	luvas := strings.Index(report, "  Luvas:")
	oculos := strings.Index(report, "  Óculos:")
	protecao := strings.Index(report, "  Proteção Respiratória:")
	vest := strings.Index(report, "  Vestimentas:")
	assert.True(t, luvas < oculos && oculos < protecao && protecao < vest)
}

func TestReportEmptyJob(t *testing.T) {
	report := BuildPlan("", "").Report(Job{}, "", "")
	assert.Contains(t, report, "[PLAN] Job - | Date: - | Work type: -")
	assert.Contains(t, report, "Sim: (none)")
}

func TestReportLeavesPlanUnchanged(t *testing.T) {
	plan := BuildPlan("Oxicorte em espaço confinado", "CO2")
	before, err := json.Marshal(plan)
	require.NoError(t, err)

	_ = plan.Report(Job{Number: "1"}, "Oxicorte em espaço confinado", "CO2")

	after, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestPlannerUsesPhraseBook(t *testing.T) {
	book, err := ParsePhraseBook([]byte(`{"open_flame": ["MAÇARICO"]}`), "test.json", nil)
	require.NoError(t, err)

	plan := NewPlanner(book).BuildPlan("uso de maçarico", "")
	assert.True(t, plan.Context().Has(FlagOpenFlame))

	// The override replaces the flag's phrases.
	plan = NewPlanner(book).BuildPlan("chama aberta", "")
	assert.False(t, plan.Context().Has(FlagOpenFlame))
}
