package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FieldID names a free-text field of the permit form.
type FieldID string

const (
	FieldDescription     FieldID = "descricao"
	FieldCharacteristics FieldID = "caracteristicas"
	FieldWorkType        FieldID = "tipo_trabalho"
)

// Form is the live permit form. Every fetch returns a fresh snapshot; the
// form may re-render between calls, so results are never reused across
// sections.
type Form interface {
	FetchFreeText(ctx context.Context, field FieldID) (string, error)
	FetchLiveQuestions(ctx context.Context, section Section) ([]LiveQuestion, error)
	FetchLiveItems(ctx context.Context, category EquipmentCategory) ([]string, error)
	FetchItemOptions(ctx context.Context, category EquipmentCategory) ([]string, error)
	ApplyAnswer(ctx context.Context, section Section, q LiveQuestion, option string) error
	ApplyAddItem(ctx context.Context, category EquipmentCategory, item string) error
}

// Outcome is the consolidated report of one job.
type Outcome struct {
	Job        Job             `json:"job"`
	HotWork    bool            `json:"hot_work"`
	Skipped    bool            `json:"skipped,omitempty"`
	DryRun     bool            `json:"dry_run"`
	Plan       *Plan           `json:"plan,omitempty"`
	Report     string          `json:"report,omitempty"`
	Sections   []SectionResult `json:"sections"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Actions returns every corrective step computed, in processing order.
func (o *Outcome) Actions() []ReconciliationAction {
	out := []ReconciliationAction{}
	for _, s := range o.Sections {
		out = append(out, s.Actions()...)
	}
	return out
}

// Failed reports whether any section or entry failed.
func (o *Outcome) Failed() bool {
	for _, s := range o.Sections {
		if s.Err != nil {
			return true
		}
		if _, _, _, failed := s.Counts(); failed > 0 {
			return true
		}
	}
	return false
}

// Summary prints one line per section with its success rate, then the
// failed entries.
func (o *Outcome) Summary() string {
	var sb strings.Builder
	if o.Skipped {
		fmt.Fprintf(&sb, "Job %s skipped: work type %q is not hot work\n", orDash(o.Job.Number), o.Job.WorkType)
		return sb.String()
	}
	mode := "applied"
	if o.DryRun {
		mode = "planned"
	}
	fmt.Fprintf(&sb, "Job %s | %s\n", orDash(o.Job.Number), orDash(o.Job.Date))
	for _, s := range o.Sections {
		if s.Err != nil {
			fmt.Fprintf(&sb, "  %-40s FAILED: %v\n", s.Name(), s.Err)
			continue
		}
		total, done, unchanged, failed := s.Counts()
		rate := 100.0
		if total > 0 {
			rate = float64(done+unchanged) / float64(total) * 100
		}
		fmt.Fprintf(&sb, "  %-40s %d/%d ok (%.1f%%) | %s=%d unchanged=%d failed=%d\n",
			s.Name(), done+unchanged, total, rate, mode, done, unchanged, failed)
	}
	for _, s := range o.Sections {
		for _, e := range s.Entries {
			if !e.Status.Failed() && !e.Ambiguous {
				continue
			}
			label := e.Code
			if e.Item != "" {
				label = e.Item
			}
			marker := string(e.Status)
			if e.Ambiguous {
				marker += ",ambiguous"
			}
			fmt.Fprintf(&sb, "  ! %s %s [%s] %s\n", s.Name(), label, marker, e.Detail)
		}
	}
	return sb.String()
}

// Executor drives one job through every section of a Form.
type Executor struct {
	planner *Planner
	logger  *zap.Logger
	dryRun  bool
}

// NewExecutor with dryRun set computes actions without applying them.
func NewExecutor(planner *Planner, logger *zap.Logger, dryRun bool) *Executor {
	if planner == nil {
		planner = NewPlanner(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{planner: planner, logger: logger, dryRun: dryRun}
}

// Run reads the job text from the form, skips jobs that are not hot work,
// builds the plan and executes it. The returned error is set only when the
// job text cannot be read.
func (ex *Executor) Run(ctx context.Context, form Form, job Job) (*Outcome, error) {
	if job.WorkType == "" {
		wt, err := form.FetchFreeText(ctx, FieldWorkType)
		if err != nil {
			return nil, fmt.Errorf("failed to read work type: %w", err)
		}
		job.WorkType = wt
	}
	if !IsHotWork(job.WorkType) {
		ex.logger.Info("job skipped",
			zap.String("job", job.Number),
			zap.String("work_type", job.WorkType),
			zap.Error(ErrNotHotWork))
		now := time.Now()
		return &Outcome{Job: job, Skipped: true, DryRun: ex.dryRun, StartedAt: now, FinishedAt: now}, nil
	}

	desc, err := form.FetchFreeText(ctx, FieldDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to read description: %w", err)
	}
	carac, err := form.FetchFreeText(ctx, FieldCharacteristics)
	if err != nil {
		return nil, fmt.Errorf("failed to read characteristics: %w", err)
	}

	plan := ex.planner.BuildPlan(desc, carac)
	out := ex.Execute(ctx, form, plan)
	out.Job = job
	out.Report = plan.Report(job, desc, carac)
	return out, nil
}

// Execute reconciles every section against plan in the fixed order:
// questionnaire, EPI radios, environmental analysis, supplementary
// questionnaire, then the equipment categories. A failing section is
// recorded and the next one still runs.
func (ex *Executor) Execute(ctx context.Context, form Form, plan Plan) *Outcome {
	out := &Outcome{HotWork: true, DryRun: ex.dryRun, Plan: &plan, StartedAt: time.Now()}

	answerSections := []struct {
		section Section
		table   AnswerTable
	}{
		{SectionQuestionnaire, plan.Questionnaire()},
		{SectionEPIRadios, plan.PrimaryEPI()},
	}
	for _, as := range answerSections {
		out.Sections = append(out.Sections, ex.runQuestions(ctx, form, as.section, func(qs []LiveQuestion) SectionResult {
			return ReconcileAnswers(as.section, as.table, qs)
		}))
	}

	out.Sections = append(out.Sections, ex.runQuestions(ctx, form, SectionEnvironmental, func(qs []LiveQuestion) SectionResult {
		return ReconcileEnvironmental(plan.EnvironmentalAnswer(), qs)
	}))

	book := ex.planner.PhraseBook()
	out.Sections = append(out.Sections, ex.runQuestions(ctx, form, SectionSupplementary, func(qs []LiveQuestion) SectionResult {
		return ReconcileSupplementary(book, plan.Context(), plan.Supplementary(), qs)
	}))

	for _, c := range AllCategories() {
		out.Sections = append(out.Sections, ex.runCategory(ctx, form, c, plan.Equipment().Set(c)))
	}

	out.FinishedAt = time.Now()
	ex.logger.Info("job reconciled",
		zap.Int("sections", len(out.Sections)),
		zap.Int("actions", len(out.Actions())),
		zap.Bool("dry_run", ex.dryRun),
		zap.Bool("failed", out.Failed()),
		zap.Duration("elapsed", out.FinishedAt.Sub(out.StartedAt)))
	return out
}

func (ex *Executor) runQuestions(ctx context.Context, form Form, section Section, reconcile func([]LiveQuestion) SectionResult) SectionResult {
	qs, err := form.FetchLiveQuestions(ctx, section)
	if err != nil {
		ex.logger.Error("section unreadable", zap.String("section", string(section)), zap.Error(err))
		return SectionResult{Section: section, Err: err, ErrText: err.Error()}
	}
	res := reconcile(qs)
	ex.apply(ctx, form, &res)
	ex.logEntries(res)
	return res
}

func (ex *Executor) runCategory(ctx context.Context, form Form, category EquipmentCategory, expected ItemSet) SectionResult {
	fail := func(err error) SectionResult {
		ex.logger.Error("category unreadable", zap.String("category", string(category)), zap.Error(err))
		return SectionResult{Section: SectionEquipment, Category: category, Err: err, ErrText: err.Error()}
	}
	observed, err := form.FetchLiveItems(ctx, category)
	if err != nil {
		return fail(err)
	}
	options, err := form.FetchItemOptions(ctx, category)
	if err != nil {
		return fail(err)
	}

	res := ReconcileCategory(category, expected, observed, options)
	ex.apply(ctx, form, &res)
	ex.logEntries(res)

	for _, item := range res.Excess {
		fields := []zap.Field{zap.String("category", string(category)), zap.String("item", item)}
		if NormalizeText(item) == NormalizeText(placeholderItems[category]) {
			ex.logger.Info("placeholder item kept", fields...)
			continue
		}
		ex.logger.Warn("item present but not planned", fields...)
	}
	return res
}

// apply performs the planned actions of res in order unless running dry.
// Once ctx is done the remaining actions are marked skipped.
func (ex *Executor) apply(ctx context.Context, form Form, res *SectionResult) {
	if ex.dryRun {
		return
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		if e.Status != StatusPlanned || e.Action == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			e.Status = StatusSkipped
			e.Detail = joinDetail(e.Detail, err.Error())
			continue
		}

		var err error
		switch e.Action.Kind {
		case ActionSetAnswer:
			err = form.ApplyAnswer(ctx, e.Action.Section, *e.Action.Question, e.Action.Option)
		case ActionAddItem:
			err = form.ApplyAddItem(ctx, e.Action.Category, e.Action.Item)
		}
		if err != nil {
			if !errors.Is(err, ErrApplyFailed) {
				err = fmt.Errorf("%w: %v", ErrApplyFailed, err)
			}
			e.Status = StatusApplyFailed
			e.Err = err
			e.Detail = joinDetail(e.Detail, err.Error())
			continue
		}
		e.Status = StatusApplied
	}
}

func (ex *Executor) logEntries(res SectionResult) {
	for _, e := range res.Entries {
		fields := []zap.Field{zap.String("section", string(e.Section))}
		if e.Category != "" {
			fields = append(fields, zap.String("category", string(e.Category)), zap.String("item", e.Item))
		} else {
			fields = append(fields, zap.String("code", e.Code), zap.String("question", truncate(e.Question, 80)))
		}

		switch {
		case e.Status.Failed():
			ex.logger.Warn(string(e.Status), append(fields, zap.Error(e.Err))...)
		case e.Status == StatusSkipped:
			ex.logger.Warn("action skipped", append(fields, zap.String("detail", e.Detail))...)
		case e.Status == StatusDuplicate:
			ex.logger.Info("item shares a label already added", append(fields, zap.String("detail", e.Detail))...)
		case e.Status == StatusSuperseded:
			ex.logger.Debug(string(e.Status), append(fields, zap.String("detail", e.Detail))...)
		}
		if e.Ambiguous {
			ex.logger.Warn("ambiguous question text, first row used", fields...)
		}
		if e.Mismatch {
			ex.logger.Warn("answer disagrees with numbered plan", append(fields, zap.String("detail", e.Detail))...)
		}
		if e.Status == StatusApplied || e.Status == StatusPlanned {
			ex.logger.Debug(string(e.Status), append(fields, zap.String("action", e.Action.String()))...)
		}
	}
}
