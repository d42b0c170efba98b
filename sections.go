package main

import (
	"fmt"
	"strings"
)

// EntryStatus is the outcome of one plan entry or equipment item.
type EntryStatus string

const (
	StatusPlanned       EntryStatus = "planned"
	StatusApplied       EntryStatus = "applied"
	StatusUnchanged     EntryStatus = "unchanged"
	StatusNotFound      EntryStatus = "not_found"
	StatusOptionMissing EntryStatus = "option_missing"
	StatusItemNotFound  EntryStatus = "item_not_found"
	StatusApplyFailed   EntryStatus = "apply_failed"
	StatusSkipped       EntryStatus = "skipped"

	// StatusSuperseded marks a planned wording whose alternate wording of the
	// same code was found instead.
	StatusSuperseded EntryStatus = "superseded"

	// StatusDuplicate marks an item whose selection-list label another item
	// of the category already claimed.
	StatusDuplicate EntryStatus = "duplicate"
)

// Failed reports whether the status counts against the section.
func (s EntryStatus) Failed() bool {
	switch s {
	case StatusNotFound, StatusOptionMissing, StatusItemNotFound, StatusApplyFailed:
		return true
	}
	return false
}

// EntryOutcome is one line of the consolidated report. Action is set while
// the entry still needs (or needed) a corrective step.
type EntryOutcome struct {
	Section   Section               `json:"section"`
	Category  EquipmentCategory     `json:"category,omitempty"`
	Code      string                `json:"code,omitempty"`
	Question  string                `json:"question,omitempty"`
	Item      string                `json:"item,omitempty"`
	Answer    Answer                `json:"answer,omitempty"`
	Status    EntryStatus           `json:"status"`
	Via       MatchVia              `json:"via,omitempty"`
	Tier      ItemTier              `json:"tier,omitempty"`
	Ambiguous bool                  `json:"ambiguous,omitempty"`
	Mismatch  bool                  `json:"hint_mismatch,omitempty"`
	Detail    string                `json:"detail,omitempty"`
	Action    *ReconciliationAction `json:"action,omitempty"`
	Err       error                 `json:"-"`
}

// SectionResult collects the entries of one questionnaire or category.
// Err is set when the section itself could not be read.
type SectionResult struct {
	Section  Section           `json:"section"`
	Category EquipmentCategory `json:"category,omitempty"`
	Entries  []EntryOutcome    `json:"entries"`
	Excess   []string          `json:"excess,omitempty"`
	Err      error             `json:"-"`
	ErrText  string            `json:"error,omitempty"`
}

// Name is the section, or section/category for equipment.
func (r SectionResult) Name() string {
	if r.Category != "" {
		return fmt.Sprintf("%s/%s", r.Section, r.Category)
	}
	return string(r.Section)
}

// Actions returns the corrective steps computed for the section, whether
// applied yet or not.
func (r SectionResult) Actions() []ReconciliationAction {
	var out []ReconciliationAction
	for _, e := range r.Entries {
		if e.Action != nil {
			out = append(out, *e.Action)
		}
	}
	return out
}

// covered reports whether another entry of the section stands in for s.
func (s EntryStatus) covered() bool {
	return s == StatusSuperseded || s == StatusDuplicate
}

// Counts returns total, applied-or-planned, unchanged and failed entries.
// Superseded and duplicate entries are left out of every count.
func (r SectionResult) Counts() (total, done, unchanged, failed int) {
	for _, e := range r.Entries {
		if e.Status.covered() {
			continue
		}
		total++
		switch {
		case e.Status == StatusApplied || e.Status == StatusPlanned:
			done++
		case e.Status == StatusUnchanged:
			unchanged++
		case e.Status.Failed():
			failed++
		}
	}
	return total, done, unchanged, failed
}

// answerEntry turns a resolved question and target answer into an entry:
// unchanged when the row already shows the answer, planned when an option
// for it exists, option_missing otherwise.
func answerEntry(section Section, q LiveQuestion, target Answer) EntryOutcome {
	e := EntryOutcome{
		Section:  section,
		Code:     q.Code,
		Question: q.Text,
		Answer:   target,
	}
	if current, ok := q.SelectedAnswer(); ok && current == target {
		e.Status = StatusUnchanged
		return e
	}
	option, ok := q.OptionFor(target)
	if !ok {
		e.Status = StatusOptionMissing
		e.Err = fmt.Errorf("%w: %q offers %s", ErrOptionNotAvailable, target, strings.Join(q.Options, "/"))
		e.Detail = e.Err.Error()
		return e
	}
	live := q
	e.Status = StatusPlanned
	e.Action = &ReconciliationAction{
		Section:  section,
		Kind:     ActionSetAnswer,
		Question: &live,
		Answer:   target,
		Option:   option,
	}
	return e
}

// ReconcileAnswers resolves every entry of table against one snapshot of
// section. Every entry yields an outcome; a miss never stops the rest. A
// missing wording is superseded when another wording planned under the
// same code was found.
func ReconcileAnswers(section Section, table AnswerTable, questions []LiveQuestion) SectionResult {
	ix := NewQuestionIndex(questions)
	res := SectionResult{Section: section}
	found := make(map[string]string)

	for _, planned := range table.entries {
		r, err := ix.Resolve(planned.Key)
		if err != nil {
			res.Entries = append(res.Entries, EntryOutcome{
				Section:  section,
				Code:     planned.Key.Code,
				Question: planned.Key.Text,
				Answer:   planned.Answer,
				Status:   StatusNotFound,
				Err:      err,
				Detail:   err.Error(),
			})
			continue
		}
		if code := ExtractCode(planned.Key.Code); code != "" {
			if _, ok := found[code]; !ok {
				found[code] = planned.Key.Text
			}
		}
		e := answerEntry(section, r.Question, planned.Answer)
		e.Via = r.Via
		e.Ambiguous = r.Ambiguous
		if r.Ambiguous {
			e.Detail = joinDetail(e.Detail, fmt.Sprintf("%d rows share this text, first used", r.Candidates))
		}
		res.Entries = append(res.Entries, e)
	}

	for i := range res.Entries {
		e := &res.Entries[i]
		if e.Status != StatusNotFound {
			continue
		}
		if sibling, ok := found[ExtractCode(e.Code)]; ok {
			e.Status = StatusSuperseded
			e.Err = nil
			e.Detail = fmt.Sprintf("form renders %s as %q", e.Code, truncate(sibling, 60))
		}
	}
	return res
}

// ReconcileSupplementary answers every live row from its rendered text.
// The numbered plan only feeds the hint cross-check.
func ReconcileSupplementary(book *PhraseBook, ctx HazardContext, plan NumberedTable, questions []LiveQuestion) SectionResult {
	ix := NewQuestionIndex(questions)
	res := SectionResult{Section: SectionSupplementary}

	for _, q := range ix.questions {
		sr := ResolveSupplementary(book, q, ctx, plan)
		e := answerEntry(SectionSupplementary, q, sr.Answer)
		e.Via = ViaPhrase
		if len(sr.Categories) > 0 {
			e.Detail = "categories: " + strings.Join(sr.Categories, ",")
		}
		if sr.HintMismatch {
			e.Mismatch = true
			e.Detail = joinDetail(e.Detail, fmt.Sprintf("numbered plan says %s for this code", sr.Hint))
		}
		res.Entries = append(res.Entries, e)
	}
	return res
}

// ReconcileEnvironmental applies the fixed answer to every live row.
func ReconcileEnvironmental(answer Answer, questions []LiveQuestion) SectionResult {
	ix := NewQuestionIndex(questions)
	res := SectionResult{Section: SectionEnvironmental}
	for _, q := range ix.questions {
		res.Entries = append(res.Entries, answerEntry(SectionEnvironmental, q, answer))
	}
	return res
}

// ReconcileCategory plans AddItem actions for the items of expected that
// observed lacks, looking each one up in the selection-list options. A label
// is added at most once; later items resolving to it are marked duplicate.
func ReconcileCategory(category EquipmentCategory, expected ItemSet, observed, options []string) SectionResult {
	d := Diff(expected, observed)
	res := SectionResult{Section: SectionEquipment, Category: category, Excess: d.Excess}
	claimed := make(map[string]string)

	for _, item := range expected.Items() {
		e := EntryOutcome{Section: SectionEquipment, Category: category, Item: item}
		if !containsItem(d.Missing, item) {
			e.Status = StatusUnchanged
			res.Entries = append(res.Entries, e)
			continue
		}
		label, tier, err := LookupItem(item, options)
		if err != nil {
			e.Status = StatusItemNotFound
			e.Err = err
			e.Detail = err.Error()
			res.Entries = append(res.Entries, e)
			continue
		}
		e.Tier = tier
		if owner, ok := claimed[NormalizeText(label)]; ok {
			e.Status = StatusDuplicate
			e.Detail = fmt.Sprintf("label %q already added for %q", truncate(label, 60), truncate(owner, 60))
			res.Entries = append(res.Entries, e)
			continue
		}
		claimed[NormalizeText(label)] = item
		e.Status = StatusPlanned
		e.Action = &ReconciliationAction{
			Section:  SectionEquipment,
			Kind:     ActionAddItem,
			Category: category,
			Item:     label,
		}
		res.Entries = append(res.Entries, e)
	}
	return res
}

func containsItem(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
