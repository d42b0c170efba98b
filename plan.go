package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Plan is everything the form should end up holding for one job. It is
// built once by a Planner and never modified; regenerating means building
// a new Plan.
type Plan struct {
	context       HazardContext
	primary       AnswerTable
	questionnaire AnswerTable
	supplementary NumberedTable
	equipment     EquipmentTable
	environmental Answer
}

func (p Plan) Context() HazardContext       { return p.context }
func (p Plan) PrimaryEPI() AnswerTable      { return p.primary }
func (p Plan) Questionnaire() AnswerTable   { return p.questionnaire }
func (p Plan) Supplementary() NumberedTable { return p.supplementary }
func (p Plan) Equipment() EquipmentTable    { return p.equipment }
func (p Plan) EnvironmentalAnswer() Answer  { return p.environmental }

func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Context       HazardContext  `json:"context"`
		PrimaryEPI    AnswerTable    `json:"primary_epi"`
		Questionnaire AnswerTable    `json:"questionnaire"`
		Supplementary NumberedTable  `json:"supplementary"`
		Equipment     EquipmentTable `json:"equipment"`
		Environmental Answer         `json:"environmental"`
	}{p.context, p.primary, p.questionnaire, p.supplementary, p.equipment, p.environmental})
}

// Planner composes the classifier and the four table builders.
type Planner struct {
	classifier *Classifier
	book       *PhraseBook
}

// NewPlanner uses book, or the built-in phrase book when book is nil.
func NewPlanner(book *PhraseBook) *Planner {
	if book == nil {
		book = DefaultPhraseBook()
	}
	return &Planner{classifier: NewClassifier(book), book: book}
}

func (pl *Planner) PhraseBook() *PhraseBook { return pl.book }

// BuildPlan classifies the job text and derives every table from the
// resulting context.
func (pl *Planner) BuildPlan(description, characteristics string) Plan {
	return PlanFor(pl.classifier.Classify(description, characteristics))
}

// PlanFor derives a plan from an already computed context.
func PlanFor(ctx HazardContext) Plan {
	return Plan{
		context:       ctx,
		primary:       BuildPrimaryEPI(ctx),
		questionnaire: BuildQuestionnaire(ctx),
		supplementary: BuildSupplementary(ctx),
		equipment:     BuildEquipment(ctx),
		environmental: environmentalAnswer,
	}
}

// BuildPlan runs the built-in phrase book.
func BuildPlan(description, characteristics string) Plan {
	return NewPlanner(nil).BuildPlan(description, characteristics)
}

const reportRule = "--------------------------------------------------------------------------------"

// Report renders the plan as ordered plain text for audit logs: flags by
// name, questionnaires by code, categories and items alphabetically.
func (p Plan) Report(job Job, description, characteristics string) string {
	var sb strings.Builder
	w := func(format string, args ...interface{}) { fmt.Fprintf(&sb, format+"\n", args...) }

	w(reportRule)
	w("[PLAN] Job %s | Date: %s | Work type: %s", orDash(job.Number), orDash(job.Date), orDash(job.WorkType))
	w(reportRule)
	w("Description (len=%d):", len([]rune(description)))
	w("  %s", description)
	w("Characteristics:")
	w("  %s", characteristics)

	w("")
	w("[CONTEXT]")
	flags := AllFlags()
	sortFlags(flags)
	for _, f := range flags {
		w("  %-22s = %t", f, p.context.Has(f))
	}
	w("  %-22s = %t", "(eye_hazard)", p.context.EyeHazard())

	w("")
	w("[EPI RADIOS]")
	for _, e := range p.primary.entries {
		w("  %s: %-4s | %s", e.Key.Code, e.Answer, e.Key.Text)
	}

	w("")
	w("[EQUIPMENT BY CATEGORY]")
	cats := AllCategories()
	sortCategories(cats)
	for _, c := range cats {
		w("  %s:", c)
		items := p.equipment.Items(c)
		if len(items) == 0 {
			w("    (none)")
		}
		for _, item := range items {
			w("    - %s", item)
		}
	}

	w("")
	w("[QUESTIONNAIRE]")
	for _, e := range p.questionnaire.entries {
		w("  %s: %-4s | %s", e.Key.Code, e.Answer, e.Key.Text)
	}

	w("")
	w("[SUPPLEMENTARY] (numbers refer to the deployed form revision; live rows are answered by text)")
	var yes, no []string
	for _, e := range p.supplementary.entries {
		if e.Answer == Yes {
			yes = append(yes, e.Code())
		} else {
			no = append(no, e.Code())
		}
	}
	if len(yes) == 0 {
		w("  %s: (none)", Yes)
	} else {
		w("  %s: %s", Yes, strings.Join(yes, ", "))
	}
	w("  %s: %s", No, strings.Join(no, ", "))

	w("")
	w("[ENVIRONMENTAL ANALYSIS]")
	w("  every question: %s", p.environmental)
	w(reportRule)
	return sb.String()
}

func sortCategories(cats []EquipmentCategory) {
	sort.Slice(cats, func(i, j int) bool {
		return NormalizeText(string(cats[i])) < NormalizeText(string(cats[j]))
	})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
