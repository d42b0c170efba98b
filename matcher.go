package main

import (
	"fmt"
	"strings"
)

// MatchVia records how a plan entry was tied to a live question.
type MatchVia string

const (
	ViaCodeAndText MatchVia = "code_text"
	ViaText        MatchVia = "text"
	ViaPhrase      MatchVia = "phrase"
)

// Resolution is the live question a plan entry resolved to. Ambiguous is
// set when several rows share the entry's text; the first in document
// order is used.
type Resolution struct {
	Question   LiveQuestion
	Via        MatchVia
	Ambiguous  bool
	Candidates int
}

type codeTextKey struct {
	code string
	text string
}

// QuestionIndex indexes one snapshot of a questionnaire. Build a new index
// for every snapshot; the form may re-render between passes.
type QuestionIndex struct {
	questions  []LiveQuestion
	byCodeText map[codeTextKey]int
	byText     map[string][]int
}

// NewQuestionIndex skips rows whose text normalizes to empty (partially
// rendered rows). Duplicate code+text rows keep the first occurrence.
func NewQuestionIndex(questions []LiveQuestion) *QuestionIndex {
	ix := &QuestionIndex{
		byCodeText: make(map[codeTextKey]int),
		byText:     make(map[string][]int),
	}
	for _, q := range questions {
		text := NormalizeText(q.Text)
		if text == "" {
			continue
		}
		i := len(ix.questions)
		ix.questions = append(ix.questions, q)

		key := codeTextKey{ExtractCode(q.Code), text}
		if _, exists := ix.byCodeText[key]; !exists {
			ix.byCodeText[key] = i
		}
		ix.byText[text] = append(ix.byText[text], i)
	}
	return ix
}

// Questions returns the indexed rows in document order.
func (ix *QuestionIndex) Questions() []LiveQuestion {
	return append([]LiveQuestion(nil), ix.questions...)
}

func (ix *QuestionIndex) Len() int { return len(ix.questions) }

// Resolve finds the live row for key: exact code and text first, then text
// alone. A miss returns ErrResolutionNotFound.
func (ix *QuestionIndex) Resolve(key AnswerKey) (Resolution, error) {
	text := NormalizeText(key.Text)

	if i, ok := ix.byCodeText[codeTextKey{ExtractCode(key.Code), text}]; ok {
		return Resolution{Question: ix.questions[i], Via: ViaCodeAndText, Candidates: 1}, nil
	}

	if candidates := ix.byText[text]; len(candidates) > 0 {
		return Resolution{
			Question:   ix.questions[candidates[0]],
			Via:        ViaText,
			Ambiguous:  len(candidates) > 1,
			Candidates: len(candidates),
		}, nil
	}

	return Resolution{}, fmt.Errorf("%w: code=%q text=%q", ErrResolutionNotFound, key.Code, truncate(key.Text, 80))
}

// notApplicableLabels are the exact spellings, after normalization, the
// form uses for "not applicable".
var notApplicableLabels = map[string]bool{
	"NA":            true,
	"N/A":           true,
	"N.A.":          true,
	"NAO APLICAVEL": true,
	"NAO SE APLICA": true,
}

// LabelAnswer reduces a rendered option label to an Answer. A bare "Não"
// is always No, never NotApplicable, and "Não se aplica" is never No.
func LabelAnswer(label string) (Answer, bool) {
	n := NormalizeText(label)
	switch n {
	case "SIM":
		return Yes, true
	case "NAO":
		return No, true
	}
	if notApplicableLabels[n] || strings.Contains(n, "NAO SE APLICA") || strings.Contains(n, "NAO APLICAVEL") {
		return NotApplicable, true
	}
	return "", false
}

// OptionFor returns the first option label of q that means a.
func (q LiveQuestion) OptionFor(a Answer) (string, bool) {
	for _, opt := range q.Options {
		if got, ok := LabelAnswer(opt); ok && got == a {
			return opt, true
		}
	}
	return "", false
}

// SelectedAnswer is the answer the row currently shows, if any.
func (q LiveQuestion) SelectedAnswer() (Answer, bool) {
	if strings.TrimSpace(q.Selected) == "" {
		return "", false
	}
	return LabelAnswer(q.Selected)
}

// SupplementaryResolution answers one live supplementary row from its
// text. Hint is the positional plan entry for the row's code, kept for
// cross-checking only.
type SupplementaryResolution struct {
	Answer       Answer
	Categories   []string
	Hint         Answer
	HintFound    bool
	HintMismatch bool
}

// ResolveSupplementary classifies the rendered question into the book's
// question categories and answers Yes when any matched category's flags
// hold in ctx. Rows that match no category are answered No.
//
// Row numbering shifts between form revisions, so the numbered plan is
// consulted only to report disagreement with the text-derived answer.
func ResolveSupplementary(book *PhraseBook, q LiveQuestion, ctx HazardContext, plan NumberedTable) SupplementaryResolution {
	if book == nil {
		book = DefaultPhraseBook()
	}
	text := NormalizeText(q.Text)

	res := SupplementaryResolution{Answer: No}
	for _, cat := range book.categories {
		if !cat.Matches(text) {
			continue
		}
		res.Categories = append(res.Categories, cat.Name)
		if ctx.Any(cat.Flags...) {
			res.Answer = Yes
		}
	}

	if n, ok := CodeNumber(q.Code); ok {
		res.Hint, res.HintFound = plan.Lookup(n)
		res.HintMismatch = res.HintFound && res.Hint != res.Answer
	}
	return res
}
