package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// CategorySnapshot is one equipment category as rendered: the items already
// added, the labels its selection dialog offers, and whether adding is
// disabled for the current step.
type CategorySnapshot struct {
	Items   []string `json:"items"`
	Options []string `json:"options"`
	Locked  bool     `json:"locked,omitempty"`
}

// FormSnapshot is a complete serialized permit form: job fields, every
// questionnaire in document order, and the equipment tab.
type FormSnapshot struct {
	Job             Job                                    `json:"job"`
	Description     string                                 `json:"description"`
	Characteristics string                                 `json:"characteristics"`
	Sections        map[Section][]LiveQuestion             `json:"sections"`
	Equipment       map[EquipmentCategory]CategorySnapshot `json:"equipment"`
}

// LoadSnapshot reads a FormSnapshot from a JSON file.
func LoadSnapshot(path string) (FormSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormSnapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap FormSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return FormSnapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}

func (s FormSnapshot) clone() FormSnapshot {
	out := s
	out.Sections = make(map[Section][]LiveQuestion, len(s.Sections))
	for sec, qs := range s.Sections {
		rows := make([]LiveQuestion, len(qs))
		for i, q := range qs {
			q.Options = append([]string(nil), q.Options...)
			rows[i] = q
		}
		out.Sections[sec] = rows
	}
	out.Equipment = make(map[EquipmentCategory]CategorySnapshot, len(s.Equipment))
	for c, cs := range s.Equipment {
		out.Equipment[c] = CategorySnapshot{
			Items:   append([]string(nil), cs.Items...),
			Options: append([]string(nil), cs.Options...),
			Locked:  cs.Locked,
		}
	}
	return out
}

// MemoryForm is a Form backed by a FormSnapshot. It serves the CLI and
// HTTP reconcile paths and the executor tests.
type MemoryForm struct {
	mu     sync.Mutex
	snap   FormSnapshot
	faults map[Section]error
}

// NewMemoryForm copies snap; later changes to snap do not reach the form.
// Equipment keys spelled without accents or in another case are mapped to
// their category.
func NewMemoryForm(snap FormSnapshot) *MemoryForm {
	snap = snap.clone()
	for key, cs := range snap.Equipment {
		if c, ok := ParseCategory(string(key)); ok && c != key {
			delete(snap.Equipment, key)
			snap.Equipment[c] = cs
		}
	}
	return &MemoryForm{snap: snap, faults: make(map[Section]error)}
}

// FailSection makes every fetch and apply against section return err.
func (f *MemoryForm) FailSection(section Section, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[section] = err
}

// Snapshot returns a copy of the current form state.
func (f *MemoryForm) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.clone()
}

func (f *MemoryForm) FetchFreeText(ctx context.Context, field FieldID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case FieldDescription:
		return f.snap.Description, nil
	case FieldCharacteristics:
		return f.snap.Characteristics, nil
	case FieldWorkType:
		return f.snap.Job.WorkType, nil
	}
	return "", fmt.Errorf("unknown field %q", field)
}

func (f *MemoryForm) FetchLiveQuestions(ctx context.Context, section Section) ([]LiveQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.faults[section]; err != nil {
		return nil, err
	}
	qs, ok := f.snap.Sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s not rendered", ErrUnknownSection, section)
	}
	out := make([]LiveQuestion, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}

func (f *MemoryForm) FetchLiveItems(ctx context.Context, category EquipmentCategory) ([]string, error) {
	cs, err := f.category(ctx, category)
	if err != nil {
		return nil, err
	}
	return cs.Items, nil
}

func (f *MemoryForm) FetchItemOptions(ctx context.Context, category EquipmentCategory) ([]string, error) {
	cs, err := f.category(ctx, category)
	if err != nil {
		return nil, err
	}
	return cs.Options, nil
}

func (f *MemoryForm) category(ctx context.Context, category EquipmentCategory) (CategorySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return CategorySnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.faults[SectionEquipment]; err != nil {
		return CategorySnapshot{}, err
	}
	cs, ok := f.snap.Equipment[category]
	if !ok {
		return CategorySnapshot{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return CategorySnapshot{
		Items:   append([]string(nil), cs.Items...),
		Options: append([]string(nil), cs.Options...),
		Locked:  cs.Locked,
	}, nil
}

// ApplyAnswer selects option on the row matching q's code and text exactly.
func (f *MemoryForm) ApplyAnswer(ctx context.Context, section Section, q LiveQuestion, option string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.faults[section]; err != nil {
		return fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}
	rows := f.snap.Sections[section]
	for i := range rows {
		if rows[i].Code != q.Code || rows[i].Text != q.Text {
			continue
		}
		for _, opt := range rows[i].Options {
			if opt == option {
				rows[i].Selected = option
				return nil
			}
		}
		return fmt.Errorf("%w: option %q not offered by %s", ErrApplyFailed, option, q.Code)
	}
	return fmt.Errorf("%w: row %s %q no longer rendered", ErrApplyFailed, q.Code, truncate(q.Text, 60))
}

// ApplyAddItem adds item, which must be one of the category's option labels.
func (f *MemoryForm) ApplyAddItem(ctx context.Context, category EquipmentCategory, item string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.faults[SectionEquipment]; err != nil {
		return fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}
	cs, ok := f.snap.Equipment[category]
	if !ok {
		return fmt.Errorf("%w: %v %q", ErrApplyFailed, ErrUnknownCategory, category)
	}
	if cs.Locked {
		return fmt.Errorf("%w: %s is locked", ErrApplyFailed, category)
	}
	for _, opt := range cs.Options {
		if opt == item {
			cs.Items = append(cs.Items, item)
			f.snap.Equipment[category] = cs
			return nil
		}
	}
	return fmt.Errorf("%w: %q not in %s selection list", ErrApplyFailed, item, category)
}
