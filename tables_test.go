package main

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flagSet generates random hazard combinations.
type flagSet []Flag

func (flagSet) Generate(r *rand.Rand, _ int) reflect.Value {
	var fs flagSet
	for _, f := range AllFlags() {
		if r.Intn(2) == 0 {
			fs = append(fs, f)
		}
	}
	r.Shuffle(len(fs), func(i, j int) { fs[i], fs[j] = fs[j], fs[i] })
	return reflect.ValueOf(fs)
}

func TestBuildersTotal(t *testing.T) {
	f := func(fs flagSet) bool {
		ctx := NewHazardContext(fs...)

		primary := BuildPrimaryEPI(ctx)
		if primary.Len() != len(epiRadiosLayout) {
			return false
		}
		for _, row := range epiRadiosLayout {
			a, ok := primary.Lookup(row.key)
			if !ok || (a != Yes && a != No) {
				return false
			}
		}

		qpt := BuildQuestionnaire(ctx)
		if qpt.Len() != len(qptLayout) {
			return false
		}
		for _, row := range qptLayout {
			a, ok := qpt.Lookup(row.key)
			if !ok || !a.Valid() {
				return false
			}
		}

		supp := BuildSupplementary(ctx)
		if supp.Len() != supplementaryCount {
			return false
		}
		for n := 1; n <= supplementaryCount; n++ {
			a, ok := supp.Lookup(n)
			if !ok || (a != Yes && a != No) {
				return false
			}
		}

		eq := BuildEquipment(ctx)
		for _, c := range AllCategories() {
			if eq.Set(c).Len() == 0 {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 3000}))
}

func TestQuestionnaireOverridesNeverNo(t *testing.T) {
	overridden := []AnswerKey{qptElectricCheck, qptAirHoses, qptSparkContainer, qptOpeningsCapped, qptSensorInhibit, qptObserverTrained}
	f := func(fs flagSet) bool {
		qpt := BuildQuestionnaire(NewHazardContext(fs...))
		for _, k := range overridden {
			if a, _ := qpt.Lookup(k); a != Yes && a != NotApplicable {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestEquipmentMonotonicUnion(t *testing.T) {
	isPlaceholder := func(c EquipmentCategory, item string) bool {
		return NormalizeText(placeholderItems[c]) == NormalizeText(item)
	}

	f := func(fs flagSet) bool {
		var active []Flag
		prev := BuildEquipment(NewHazardContext())
		for _, flag := range fs {
			active = append(active, flag)
			next := BuildEquipment(NewHazardContext(active...))
			for _, c := range AllCategories() {
				for _, item := range prev.Items(c) {
					if isPlaceholder(c, item) {
						continue
					}
					if !next.Set(c).Contains(item) {
						t.Logf("adding %s to %v removed %q from %s", flag, active[:len(active)-1], item, c)
						return false
					}
				}
			}
			prev = next
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 1000}))
}

func TestEquipmentIdempotent(t *testing.T) {
	once := BuildEquipment(NewHazardContext(FlagOpenFlame, FlagHeight))
	twice := BuildEquipment(NewHazardContext(FlagOpenFlame, FlagHeight, FlagOpenFlame, FlagHeight))
	for _, c := range AllCategories() {
		assert.Equal(t, once.Items(c), twice.Items(c))
	}
}

func TestScenarioWeldingAtHeight(t *testing.T) {
	plan := BuildPlan("TRABALHO A QUENTE COM SOLDA EM ALTURA", "")
	ctx := plan.Context()
	require.True(t, ctx.Has(FlagOpenFlame))
	require.True(t, ctx.Has(FlagHeight))

	primary := plan.PrimaryEPI()
	assertAnswer(t, primary, epiHarness, Yes)
	assertAnswer(t, primary, epiLifeJacket, No)
	assertAnswer(t, primary, epiFaceShield, Yes)

	eyewear := plan.Equipment().Set(CategoryEyewear)
	assert.True(t, eyewear.Contains(itemWelderMask))
	assert.True(t, eyewear.Contains(itemShadeLens))

	qpt := plan.Questionnaire()
	assertAnswer(t, qpt, qptSparkContainer, Yes)
	assertAnswer(t, qpt, qptSensorInhibit, NotApplicable)
}

func TestScenarioOxyCuttingOverWater(t *testing.T) {
	plan := BuildPlan("OXICORTE SOBRE O MAR", "")
	ctx := plan.Context()
	require.True(t, ctx.Has(FlagOpenFlame))
	require.True(t, ctx.Has(FlagOverWater))

	assertAnswer(t, plan.PrimaryEPI(), epiLifeJacket, Yes)
	assertAnswer(t, plan.PrimaryEPI(), epiHarness, Yes)

	garments := plan.Equipment().Set(CategoryGarments)
	for _, item := range overWaterGarments {
		assert.True(t, garments.Contains(item), item)
	}
	for _, item := range heightGarments {
		assert.True(t, garments.Contains(item), item)
	}
	assert.True(t, plan.Equipment().Set(CategoryEyewear).Contains(itemTorchGoggles))
}

func TestScenarioNoHazards(t *testing.T) {
	plan := BuildPlan("", "")
	assert.Empty(t, plan.Context().Active())

	// Base defaults, except the face shield whose override takes its false branch.
	for _, row := range epiRadiosLayout {
		want := row.base
		if row.key == epiFaceShield {
			want = No
		}
		assertAnswer(t, plan.PrimaryEPI(), row.key, want)
	}
	for _, row := range qptLayout {
		assertAnswer(t, plan.Questionnaire(), row.key, row.base)
	}
	for _, e := range plan.Supplementary().Entries() {
		assert.Equal(t, No, e.Answer, e.Code())
	}

	eq := plan.Equipment()
	assert.Equal(t, []string{itemImpactGloves}, eq.Items(CategoryGloves))
	assert.Equal(t, []string{itemRespiratoryNA}, eq.Items(CategoryRespiratory))
	assert.Equal(t, []string{itemImpactGlasses}, eq.Items(CategoryEyewear))
	assert.ElementsMatch(t, []string{itemDoubleHearing, itemMandatoryEPI}, eq.Items(CategoryGarments))
	assert.Equal(t, No, plan.EnvironmentalAnswer())
}

func TestSupplementaryTriggers(t *testing.T) {
	supp := BuildSupplementary(NewHazardContext(FlagRopeAccess, FlagCO2Protected))
	var yes []int
	for _, e := range supp.Entries() {
		if e.Answer == Yes {
			yes = append(yes, e.Number)
		}
	}
	assert.Equal(t, []int{7, 19}, yes)
}

func TestBuildersDeterministic(t *testing.T) {
	ctx := Classify("Solda com esmerilhadeira e agulheiro", "espaço confinado, elétrica")
	a, b := PlanFor(ctx), PlanFor(ctx)

	assert.Equal(t, a.PrimaryEPI().Entries(), b.PrimaryEPI().Entries())
	if diff := cmp.Diff(a.Questionnaire().Entries(), b.Questionnaire().Entries()); diff != "" {
		t.Errorf("questionnaire differs (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.Supplementary().Entries(), b.Supplementary().Entries())
	for _, c := range AllCategories() {
		assert.Equal(t, a.Equipment().Items(c), b.Equipment().Items(c))
	}
}

func assertAnswer(t *testing.T, table AnswerTable, key AnswerKey, want Answer) {
	t.Helper()
	got, ok := table.Lookup(key)
	require.True(t, ok, "missing %s %q", key.Code, key.Text)
	assert.Equal(t, want, got, "%s %q", key.Code, key.Text)
}
