package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var radioOptions = []string{"Sim", "Não", "NA"}

func TestResolveTextFallback(t *testing.T) {
	live := []LiveQuestion{
		{Code: "Q001", Text: "Permanência do Operador no Local de Trabalho?", Options: radioOptions},
		{Code: "Q011", Text: "O local foi isolado, sinalizado e o pessoal desnecessário afastado ?", Options: radioOptions},
	}
	ix := NewQuestionIndex(live)

	// The plan records Q008; this form revision renders the row as Q011.
	r, err := ix.Resolve(qptAreaIsolated)
	require.NoError(t, err)
	assert.Equal(t, ViaText, r.Via)
	assert.False(t, r.Ambiguous)
	assert.Equal(t, 1, r.Candidates)
	assert.Equal(t, "Q011", r.Question.Code)
}

func TestResolveCodeAndText(t *testing.T) {
	live := []LiveQuestion{
		{Code: "Q1", Text: "  permanencia do operador no local de trabalho? "},
		{Code: "Q001", Text: "Permanência do Operador no Local de Trabalho?"},
	}
	r, err := NewQuestionIndex(live).Resolve(qptOperatorOnSite)
	require.NoError(t, err)
	assert.Equal(t, ViaCodeAndText, r.Via)
	assert.Equal(t, "Q1", r.Question.Code, "first row with the same code and text wins")
}

func TestResolveAmbiguous(t *testing.T) {
	live := []LiveQuestion{
		{Code: "Q020", Text: "Acompanhamento Periódico? (Em caso de Acompanhamento Periódico, efetuar verificações de ____em___horas)"},
		{Code: "Q021", Text: "ACOMPANHAMENTO PERIODICO? (EM CASO DE ACOMPANHAMENTO PERIODICO, EFETUAR VERIFICACOES DE ____EM___HORAS)"},
	}
	r, err := NewQuestionIndex(live).Resolve(qptPeriodicCheck)
	require.NoError(t, err)
	assert.True(t, r.Ambiguous)
	assert.Equal(t, 2, r.Candidates)
	assert.Equal(t, "Q020", r.Question.Code)
}

func TestResolveNotFound(t *testing.T) {
	live := []LiveQuestion{
		{Code: "Q001", Text: "Outra pergunta"},
		{Code: "Q002", Text: "   "},
	}
	ix := NewQuestionIndex(live)
	assert.Equal(t, 1, ix.Len(), "blank rows are not indexed")

	_, err := ix.Resolve(qptObserverTrained)
	assert.ErrorIs(t, err, ErrResolutionNotFound)
}

func TestLabelAnswer(t *testing.T) {
	tests := []struct {
		label string
		want  Answer
		ok    bool
	}{
		{"Sim", Yes, true},
		{"SIM", Yes, true},
		{"Não", No, true},
		{"NAO", No, true},
		{" nao ", No, true},
		{"NA", NotApplicable, true},
		{"N/A", NotApplicable, true},
		{"Não se aplica", NotApplicable, true},
		{"NAO SE APLICA", NotApplicable, true},
		{"Não aplicável", NotApplicable, true},
		{"Talvez", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LabelAnswer(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestOptionFor(t *testing.T) {
	q := LiveQuestion{Options: []string{"Sim", "Não se aplica", "Não"}}

	opt, ok := q.OptionFor(No)
	require.True(t, ok)
	assert.Equal(t, "Não", opt)

	opt, ok = q.OptionFor(NotApplicable)
	require.True(t, ok)
	assert.Equal(t, "Não se aplica", opt)

	_, ok = LiveQuestion{Options: []string{"Sim", "Não"}}.OptionFor(NotApplicable)
	assert.False(t, ok)
}

func TestResolveSupplementaryByText(t *testing.T) {
	ctx := NewHazardContext(FlagOpenFlame, FlagHeight)
	plan := BuildSupplementary(ctx)

	tests := []struct {
		name     string
		q        LiveQuestion
		want     Answer
		mismatch bool
	}{
		{
			name: "height row where the plan expects it",
			q:    LiveQuestion{Code: "Q007", Text: "Trabalho em altura acima de 2 metros?"},
			want: Yes,
		},
		{
			name: "height row abbreviating metres",
			q:    LiveQuestion{Code: "Q007", Text: "Trabalho acima de 2m do piso?"},
			want: Yes,
		},
		{
			name:     "flame row shifted to a new number",
			q:        LiveQuestion{Code: "Q011", Text: "Haverá uso de chama aberta?"},
			want:     Yes,
			mismatch: true,
		},
		{
			name: "co2 row without the hazard",
			q:    LiveQuestion{Code: "Q019", Text: "Ambiente protegido por CO2?"},
			want: No,
		},
		{
			name: "unknown row",
			q:    LiveQuestion{Code: "Q020", Text: "Há animais peçonhentos na área?"},
			want: No,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResolveSupplementary(nil, tt.q, ctx, plan)
			assert.Equal(t, tt.want, r.Answer)
			assert.True(t, r.HintFound)
			assert.Equal(t, tt.mismatch, r.HintMismatch)
		})
	}
}
