package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// questionKeyPrefix marks phrase-book keys that override the phrases used
// to recognise a rendered supplementary question, e.g. "question_co2".
const questionKeyPrefix = "question_"

// Predicate is "haystack contains any of Phrases" plus an optional list of
// terms that only match as whole words.
type Predicate struct {
	Phrases    []string
	WholeWords []string
	wordRes    []*regexp.Regexp
}

func newPredicate(phrases, wholeWords []string) Predicate {
	p := Predicate{
		Phrases:    normalizeAll(phrases),
		WholeWords: normalizeAll(wholeWords),
	}
	for _, w := range p.WholeWords {
		p.wordRes = append(p.wordRes, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return p
}

// Match expects an already normalized haystack.
func (p Predicate) Match(haystack string) bool {
	for _, ph := range p.Phrases {
		if strings.Contains(haystack, ph) {
			return true
		}
	}
	for _, re := range p.wordRes {
		if re.MatchString(haystack) {
			return true
		}
	}
	return false
}

// QuestionCategory recognises a supplementary question by its rendered text
// and names the flags that answer it.
type QuestionCategory struct {
	Name    string
	Phrases []string
	Flags   []Flag
}

// Matches expects normalized question text.
func (qc QuestionCategory) Matches(text string) bool {
	for _, ph := range qc.Phrases {
		if strings.Contains(text, ph) {
			return true
		}
	}
	return false
}

// PhraseBook holds the classifier predicates and the supplementary question
// categories. A book is never modified after it is built.
type PhraseBook struct {
	predicates [flagCount]Predicate
	categories []QuestionCategory
	source     string
	loadedAt   time.Time
}

var defaultBook = buildDefaultPhraseBook()

// DefaultPhraseBook returns the built-in book.
func DefaultPhraseBook() *PhraseBook { return defaultBook }

func buildDefaultPhraseBook() *PhraseBook {
	b := &PhraseBook{source: "builtin", loadedAt: time.Now()}
	b.predicates = defaultPredicates()
	b.categories = defaultQuestionCategories()
	return b
}

func defaultPredicates() [flagCount]Predicate {
	var p [flagCount]Predicate
	p[FlagConfinedSpace] = newPredicate([]string{"ESPACO CONFINADO", "INTERIOR DE ESPACO", "DENTRO DE", "INTERIOR DO"}, nil)
	p[FlagHeight] = newPredicate([]string{"ALTURA", "ACESSO POR CORDAS", "CORDAS", "NR-35", "TRABALHO EM ALTURA"}, nil)
	p[FlagRopeAccess] = newPredicate([]string{"ACESSO POR CORDAS"}, nil)
	p[FlagOverWater] = newPredicate([]string{"SOBRE O MAR"}, nil)
	p[FlagOpenFlame] = newPredicate([]string{"CHAMA ABERTA", "ESMERILHADEIRA", "OXICORTE", "SOLDA"}, nil)
	p[FlagOxyCutting] = newPredicate([]string{"OXICORTE"}, nil)
	p[FlagWelding] = newPredicate(nil, []string{"SOLDA"})
	p[FlagCO2Protected] = newPredicate([]string{
		"AMBIENTES PROTEGIDOS POR CO2",
		"PROTEGIDO POR SISTEMA DE CO2",
		"PROTEGIDOS POR CO2",
		"PROTEGIDO POR CO2",
	}, nil)
	p[FlagMechanicalTreatment] = newPredicate([]string{"TRATAMENTO MECANICO"}, nil)
	p[FlagNeedleGun] = newPredicate([]string{"AGULHEIRO"}, nil)
	p[FlagPneumaticSander] = newPredicate([]string{"LIXADEIRA PNEUMATIC"}, nil)
	p[FlagSander] = newPredicate([]string{"LIXADEIRA"}, nil)
	p[FlagPneumatic] = newPredicate([]string{"PNEUMATIC"}, nil)
	p[FlagElectrical] = newPredicate([]string{"ELETRIC"}, nil)
	p[FlagCutting] = newPredicate(nil, []string{"CORTE"})
	p[FlagSabreSaw] = newPredicate([]string{"SERRA SABRE"}, nil)
	p[FlagPressurized] = newPredicate([]string{"PRESSURIZADO"}, nil)
	p[FlagWaterJetting] = newPredicate([]string{"HIDROJATO", "HIDROJATEAMENTO"}, nil)
	p[FlagMovingParts] = newPredicate([]string{"PARTES MOVEIS"}, nil)
	return p
}

// defaultQuestionCategories is checked in order. Question-side phrases are
// kept apart from the job-text predicates: "DENTRO DE" describes a job well
// but appears in unrelated question wording.
func defaultQuestionCategories() []QuestionCategory {
	return []QuestionCategory{
		{Name: "height", Phrases: normalizeAll([]string{"ALTURA", "2 METROS", "2M", "TRABALHO EM ALTURA", "ELEVADO", "ACESSO POR CORDAS"}),
			Flags: []Flag{FlagHeight, FlagRopeAccess, FlagOverWater}},
		{Name: "over_water", Phrases: normalizeAll([]string{"SOBRE O MAR", "MARÍTIMO"}),
			Flags: []Flag{FlagOverWater}},
		{Name: "open_flame", Phrases: normalizeAll([]string{"CHAMA ABERTA", "SOLDA", "OXICORTE", "ESMERILHADEIRA", "TRABALHO A QUENTE", "CHAMA"}),
			Flags: []Flag{FlagOpenFlame}},
		{Name: "co2_protected", Phrases: normalizeAll([]string{"CO2", "GÁS CARBÔNICO"}),
			Flags: []Flag{FlagCO2Protected}},
		{Name: "confined_space", Phrases: normalizeAll([]string{"ESPAÇO CONFINADO", "CONFINADO"}),
			Flags: []Flag{FlagConfinedSpace}},
		{Name: "pressurized", Phrases: normalizeAll([]string{"PRESSURIZADO", "PRESSÃO", "PRESSAO TRAPEADA", "PRESSAO TRAP"}),
			Flags: []Flag{FlagPressurized}},
		{Name: "moving_parts", Phrases: normalizeAll([]string{"PARTES MOVEIS", "PARTES MÓVEIS"}),
			Flags: []Flag{FlagMovingParts}},
		{Name: "water_jetting", Phrases: normalizeAll([]string{"HIDROJATO", "HIDROJATEAMENTO", "JATEAMENTO"}),
			Flags: []Flag{FlagWaterJetting}},
	}
}

// Predicate returns the predicate for f.
func (b *PhraseBook) Predicate(f Flag) Predicate {
	if f < 0 || f >= flagCount {
		return Predicate{}
	}
	return b.predicates[f]
}

// Categories returns the supplementary question categories in check order.
func (b *PhraseBook) Categories() []QuestionCategory {
	return append([]QuestionCategory(nil), b.categories...)
}

func (b *PhraseBook) Source() string      { return b.source }
func (b *PhraseBook) LoadedAt() time.Time { return b.loadedAt }

// ParsePhraseBook builds a book from a JSON object keyed by flag name. The
// built-in phrases are the starting point; each key replaces the phrases of
// the flag it names. Values follow the keyword-file conventions:
//
//	"open_flame": ["CHAMA ABERTA", "MAÇARICO"]
//	"welding":    {"phrases": [], "whole_words": ["SOLDA"]}
//	"question_co2_protected": ["CO2", "GAS CARBONICO"]
//
// Keys that name no flag or category are skipped with a warning.
func ParsePhraseBook(data []byte, source string, logger *zap.Logger) (*PhraseBook, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse phrase book %s: %w", source, err)
	}

	b := &PhraseBook{
		predicates: defaultPredicates(),
		categories: defaultQuestionCategories(),
		source:     source,
		loadedAt:   time.Now(),
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if name, ok := strings.CutPrefix(key, questionKeyPrefix); ok {
			idx := b.categoryIndex(name)
			if idx < 0 {
				logger.Warn("unknown question category in phrase book", zap.String("key", key), zap.String("source", source))
				continue
			}
			phrases, _ := convertPhrases(value)
			if len(phrases) == 0 {
				continue
			}
			b.categories[idx].Phrases = normalizeAll(phrases)
			continue
		}

		flag, ok := ParseFlag(key)
		if !ok {
			logger.Warn("unknown flag in phrase book", zap.String("key", key), zap.String("source", source))
			continue
		}
		phrases, words := convertPhrases(value)
		if len(phrases) == 0 && len(words) == 0 {
			logger.Warn("empty phrase list ignored", zap.String("flag", key), zap.String("source", source))
			continue
		}
		b.predicates[flag] = newPredicate(phrases, words)
	}

	return b, nil
}

func (b *PhraseBook) categoryIndex(name string) int {
	for i, c := range b.categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// convertPhrases accepts a list, a single string, or an object with
// "phrases" and "whole_words" lists.
func convertPhrases(value interface{}) (phrases, wholeWords []string) {
	switch v := value.(type) {
	case []interface{}:
		phrases = stringSlice(v)
	case string:
		phrases = []string{v}
	case map[string]interface{}:
		if list, ok := v["phrases"].([]interface{}); ok {
			phrases = stringSlice(list)
		}
		if list, ok := v["whole_words"].([]interface{}); ok {
			wholeWords = stringSlice(list)
		}
	}
	return phrases, wholeWords
}

func stringSlice(items []interface{}) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func normalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if n := NormalizeText(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
