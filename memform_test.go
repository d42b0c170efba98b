package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFormIsolation(t *testing.T) {
	snap := newTestSnapshot("Solda")
	form := NewMemoryForm(snap)

	snap.Sections[SectionEPIRadios][0].Text = "changed by caller"
	qs, err := form.FetchLiveQuestions(context.Background(), SectionEPIRadios)
	require.NoError(t, err)
	assert.Equal(t, epiHarness.Text, qs[0].Text)

	qs[0].Options[0] = "changed by reader"
	again, err := form.FetchLiveQuestions(context.Background(), SectionEPIRadios)
	require.NoError(t, err)
	assert.Equal(t, "Sim", again[0].Options[0])
}

func TestMemoryFormApply(t *testing.T) {
	ctx := context.Background()
	form := NewMemoryForm(newTestSnapshot("Solda"))

	q := LiveQuestion{Code: epiHarness.Code, Text: epiHarness.Text}
	require.NoError(t, form.ApplyAnswer(ctx, SectionEPIRadios, q, "Sim"))
	assert.ErrorIs(t, form.ApplyAnswer(ctx, SectionEPIRadios, q, "Talvez"), ErrApplyFailed)
	assert.ErrorIs(t, form.ApplyAnswer(ctx, SectionEPIRadios, LiveQuestion{Code: "Q099", Text: "?"}, "Sim"), ErrApplyFailed)

	require.NoError(t, form.ApplyAddItem(ctx, CategoryGloves, itemAramidGloves))
	assert.ErrorIs(t, form.ApplyAddItem(ctx, CategoryGloves, "LUVA DE OURO"), ErrApplyFailed)

	items, err := form.FetchLiveItems(ctx, CategoryGloves)
	require.NoError(t, err)
	assert.Equal(t, []string{itemAramidGloves}, items)

	_, err = form.FetchLiveItems(ctx, EquipmentCategory("Chapéus"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = form.FetchLiveQuestions(ctx, Section("nope"))
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestMemoryFormCategoryKeys(t *testing.T) {
	snap := FormSnapshot{Equipment: map[EquipmentCategory]CategorySnapshot{
		"OCULOS":                {Items: []string{itemImpactGlasses}},
		"protecao respiratoria": {Items: []string{itemRespiratoryNA}},
	}}
	form := NewMemoryForm(snap)

	items, err := form.FetchLiveItems(context.Background(), CategoryEyewear)
	require.NoError(t, err)
	assert.Equal(t, []string{itemImpactGlasses}, items)

	items, err = form.FetchLiveItems(context.Background(), CategoryRespiratory)
	require.NoError(t, err)
	assert.Equal(t, []string{itemRespiratoryNA}, items)
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	want := newTestSnapshot("Oxicorte")
	data, err := json.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, want.Job, got.Job)
	assert.Equal(t, want.Sections, got.Sections)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
