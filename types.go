package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Answer is one of the three values a permit questionnaire row accepts.
// The canonical strings are the labels the form itself uses.
type Answer string

const (
	Yes           Answer = "Sim"
	No            Answer = "Não"
	NotApplicable Answer = "NA"
)

// Valid reports whether a is one of Yes, No or NotApplicable.
func (a Answer) Valid() bool {
	switch a {
	case Yes, No, NotApplicable:
		return true
	}
	return false
}

// UnmarshalText rejects anything other than the three canonical values.
func (a *Answer) UnmarshalText(text []byte) error {
	v := Answer(text)
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAnswer, string(text))
	}
	*a = v
	return nil
}

// Flag names one hazard condition detected in the job text.
type Flag int

const (
	FlagConfinedSpace Flag = iota
	FlagHeight
	FlagRopeAccess
	FlagOverWater
	FlagOpenFlame
	FlagOxyCutting
	FlagWelding
	FlagCO2Protected
	FlagMechanicalTreatment
	FlagNeedleGun
	FlagPneumaticSander
	FlagSander
	FlagPneumatic
	FlagElectrical
	FlagCutting
	FlagSabreSaw
	FlagPressurized
	FlagWaterJetting
	FlagMovingParts
	flagCount
)

var flagNames = [flagCount]string{
	FlagConfinedSpace:       "confined_space",
	FlagHeight:              "height",
	FlagRopeAccess:          "rope_access",
	FlagOverWater:           "over_water",
	FlagOpenFlame:           "open_flame",
	FlagOxyCutting:          "oxy_cutting",
	FlagWelding:             "welding",
	FlagCO2Protected:        "co2_protected",
	FlagMechanicalTreatment: "mechanical_treatment",
	FlagNeedleGun:           "needle_gun",
	FlagPneumaticSander:     "pneumatic_sander",
	FlagSander:              "sander",
	FlagPneumatic:           "pneumatic",
	FlagElectrical:          "electrical",
	FlagCutting:             "cutting",
	FlagSabreSaw:            "sabre_saw",
	FlagPressurized:         "pressurized",
	FlagWaterJetting:        "water_jetting",
	FlagMovingParts:         "moving_parts",
}

func (f Flag) String() string {
	if f < 0 || f >= flagCount {
		return fmt.Sprintf("flag(%d)", int(f))
	}
	return flagNames[f]
}

// ParseFlag maps a flag name such as "open_flame" back to its Flag.
func ParseFlag(name string) (Flag, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f := Flag(0); f < flagCount; f++ {
		if flagNames[f] == name {
			return f, true
		}
	}
	return 0, false
}

// AllFlags returns every flag in declaration order.
func AllFlags() []Flag {
	out := make([]Flag, 0, flagCount)
	for f := Flag(0); f < flagCount; f++ {
		out = append(out, f)
	}
	return out
}

// HazardContext is the boolean hazard vector derived from one job's text.
// It is a value type; nothing mutates it after construction.
type HazardContext struct {
	flags    [flagCount]bool
	haystack string

	// composites, derived once in newHazardContext
	eyeHazard     bool
	mechanical    bool
	compressedAir bool
}

// NewHazardContext builds a context where exactly the given flags hold.
func NewHazardContext(flags ...Flag) HazardContext {
	var set [flagCount]bool
	for _, f := range flags {
		if f >= 0 && f < flagCount {
			set[f] = true
		}
	}
	return newHazardContext(set, "")
}

func newHazardContext(flags [flagCount]bool, haystack string) HazardContext {
	c := HazardContext{flags: flags, haystack: haystack}
	c.mechanical = flags[FlagMechanicalTreatment] || flags[FlagNeedleGun] || flags[FlagPneumaticSander]
	c.compressedAir = c.mechanical || flags[FlagPneumatic]
	c.eyeHazard = flags[FlagOpenFlame] ||
		c.mechanical ||
		flags[FlagSander] ||
		flags[FlagCutting] ||
		flags[FlagSabreSaw]
	return c
}

// Has reports whether flag f holds.
func (c HazardContext) Has(f Flag) bool {
	if f < 0 || f >= flagCount {
		return false
	}
	return c.flags[f]
}

// Any reports whether at least one of the flags holds.
func (c HazardContext) Any(flags ...Flag) bool {
	for _, f := range flags {
		if c.Has(f) {
			return true
		}
	}
	return false
}

// EyeHazard is the composite used by both the EPI radios and the eyewear
// category: open flame, any mechanical treatment, sanding, cutting or sabre saw.
func (c HazardContext) EyeHazard() bool { return c.eyeHazard }

// MechanicalTreatment covers mechanical treatment, needle gun and pneumatic sander.
func (c HazardContext) MechanicalTreatment() bool { return c.mechanical }

// CompressedAir holds when compressed-air hoses are expected on site.
func (c HazardContext) CompressedAir() bool { return c.compressedAir }

// Haystack is the normalized text the context was classified from.
func (c HazardContext) Haystack() string { return c.haystack }

// Active returns the flags that hold, sorted by name.
func (c HazardContext) Active() []Flag {
	var out []Flag
	for f := Flag(0); f < flagCount; f++ {
		if c.flags[f] {
			out = append(out, f)
		}
	}
	sortFlags(out)
	return out
}

// Map returns every flag name with its value.
func (c HazardContext) Map() map[string]bool {
	out := make(map[string]bool, flagCount)
	for f := Flag(0); f < flagCount; f++ {
		out[flagNames[f]] = c.flags[f]
	}
	return out
}

func (c HazardContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Flags         map[string]bool `json:"flags"`
		EyeHazard     bool            `json:"eye_hazard"`
		CompressedAir bool            `json:"compressed_air"`
		Text          string          `json:"text"`
	}{c.Map(), c.eyeHazard, c.compressedAir, c.haystack})
}

func sortFlags(flags []Flag) {
	sort.Slice(flags, func(i, j int) bool { return flagNames[flags[i]] < flagNames[flags[j]] })
}

// AnswerKey identifies one questionnaire row: its ordinal code (may be
// empty) and its question text as written on the form.
type AnswerKey struct {
	Code string `json:"code"`
	Text string `json:"question"`
}

// AnswerEntry is one planned answer.
type AnswerEntry struct {
	Key    AnswerKey `json:"key"`
	Answer Answer    `json:"answer"`
}

// AnswerTable is an immutable, code-ordered list of planned answers.
type AnswerTable struct {
	entries []AnswerEntry
}

func newAnswerTable(values map[AnswerKey]Answer) AnswerTable {
	entries := make([]AnswerEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, AnswerEntry{Key: k, Answer: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key.Code != entries[j].Key.Code {
			return entries[i].Key.Code < entries[j].Key.Code
		}
		return entries[i].Key.Text < entries[j].Key.Text
	})
	return AnswerTable{entries: entries}
}

// Entries returns a copy of the table rows ordered by code.
func (t AnswerTable) Entries() []AnswerEntry {
	return append([]AnswerEntry(nil), t.entries...)
}

// Lookup returns the planned answer for key.
func (t AnswerTable) Lookup(key AnswerKey) (Answer, bool) {
	for _, e := range t.entries {
		if e.Key == key {
			return e.Answer, true
		}
	}
	return "", false
}

func (t AnswerTable) Len() int { return len(t.entries) }

func (t AnswerTable) MarshalJSON() ([]byte, error) {
	type row struct {
		Code     string `json:"code"`
		Question string `json:"question"`
		Answer   Answer `json:"answer"`
	}
	rows := make([]row, 0, len(t.entries))
	for _, e := range t.entries {
		rows = append(rows, row{e.Key.Code, e.Key.Text, e.Answer})
	}
	return json.Marshal(rows)
}

// NumberedEntry is one row of the supplementary questionnaire, addressed by
// its position on the deployed form revision.
type NumberedEntry struct {
	Number int    `json:"number"`
	Answer Answer `json:"answer"`
}

// Code renders the number the way the form labels it ("Q007").
func (e NumberedEntry) Code() string { return fmt.Sprintf("Q%03d", e.Number) }

// NumberedTable is the immutable supplementary plan, ordered by number.
type NumberedTable struct {
	entries []NumberedEntry
}

func (t NumberedTable) Entries() []NumberedEntry {
	return append([]NumberedEntry(nil), t.entries...)
}

func (t NumberedTable) Lookup(number int) (Answer, bool) {
	for _, e := range t.entries {
		if e.Number == number {
			return e.Answer, true
		}
	}
	return "", false
}

func (t NumberedTable) Len() int { return len(t.entries) }

func (t NumberedTable) MarshalJSON() ([]byte, error) {
	type row struct {
		Number int    `json:"number"`
		Code   string `json:"code"`
		Answer Answer `json:"answer"`
	}
	rows := make([]row, 0, len(t.entries))
	for _, e := range t.entries {
		rows = append(rows, row{e.Number, e.Code(), e.Answer})
	}
	return json.Marshal(rows)
}

// EquipmentCategory is one of the fixed equipment groups on the EPI tab.
// The value is the label the form renders.
type EquipmentCategory string

const (
	CategoryGarments    EquipmentCategory = "Vestimentas"
	CategoryEyewear     EquipmentCategory = "Óculos"
	CategoryGloves      EquipmentCategory = "Luvas"
	CategoryRespiratory EquipmentCategory = "Proteção Respiratória"
)

// AllCategories returns the categories in the order the EPI tab is processed.
func AllCategories() []EquipmentCategory {
	return []EquipmentCategory{CategoryGarments, CategoryEyewear, CategoryGloves, CategoryRespiratory}
}

// ParseCategory accepts a category label in any case or accentuation.
func ParseCategory(label string) (EquipmentCategory, bool) {
	n := NormalizeText(label)
	for _, c := range AllCategories() {
		if NormalizeText(string(c)) == n {
			return c, true
		}
	}
	return "", false
}

// ItemSet is a set of equipment item names. Membership is decided on the
// normalized name; the first spelling added is the one displayed.
type ItemSet struct {
	items map[string]string
}

func NewItemSet(items ...string) ItemSet {
	return ItemSet{}.With(items...)
}

// With returns a new set holding s plus items. s is unchanged.
func (s ItemSet) With(items ...string) ItemSet {
	out := make(map[string]string, len(s.items)+len(items))
	for k, v := range s.items {
		out[k] = v
	}
	for _, item := range items {
		k := NormalizeText(item)
		if k == "" {
			continue
		}
		if _, ok := out[k]; !ok {
			out[k] = strings.TrimSpace(item)
		}
	}
	return ItemSet{items: out}
}

func (s ItemSet) Contains(item string) bool {
	_, ok := s.items[NormalizeText(item)]
	return ok
}

// Items returns the display names sorted by normalized form.
func (s ItemSet) Items() []string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s ItemSet) Len() int { return len(s.items) }

// EquipmentTable maps every category to its expected item set.
type EquipmentTable struct {
	sets map[EquipmentCategory]ItemSet
}

// Set returns the expected items for c; unknown categories yield an empty set.
func (t EquipmentTable) Set(c EquipmentCategory) ItemSet {
	return t.sets[c]
}

func (t EquipmentTable) Items(c EquipmentCategory) []string {
	return t.sets[c].Items()
}

func (t EquipmentTable) MarshalJSON() ([]byte, error) {
	out := make(map[EquipmentCategory][]string, len(t.sets))
	for _, c := range AllCategories() {
		out[c] = t.Items(c)
	}
	return json.Marshal(out)
}

// LiveQuestion is one questionnaire row as rendered by the form at the
// moment of a snapshot. Slice order is document order.
type LiveQuestion struct {
	Code     string   `json:"code"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
}

// Section names a questionnaire or tab of the permit form.
type Section string

const (
	SectionQuestionnaire Section = "questionario_pt"
	SectionEPIRadios     Section = "epi_adicional"
	SectionEnvironmental Section = "analise_ambiental"
	SectionSupplementary Section = "apn1"
	SectionEquipment     Section = "epi"
)

// ActionKind is what a reconciliation action does. There is no removal kind.
type ActionKind string

const (
	ActionSetAnswer ActionKind = "set_answer"
	ActionAddItem   ActionKind = "add_item"
)

// ReconciliationAction is one corrective step for the form boundary.
type ReconciliationAction struct {
	Section  Section           `json:"section"`
	Kind     ActionKind        `json:"kind"`
	Question *LiveQuestion     `json:"question,omitempty"`
	Answer   Answer            `json:"answer,omitempty"`
	Option   string            `json:"option,omitempty"`
	Category EquipmentCategory `json:"category,omitempty"`
	Item     string            `json:"item,omitempty"`
}

func (a ReconciliationAction) String() string {
	switch a.Kind {
	case ActionSetAnswer:
		code, text := "", ""
		if a.Question != nil {
			code, text = a.Question.Code, a.Question.Text
		}
		return fmt.Sprintf("%s %s %q -> %s", a.Section, code, truncate(text, 60), a.Option)
	case ActionAddItem:
		return fmt.Sprintf("%s %s + %s", a.Section, a.Category, a.Item)
	}
	return string(a.Kind)
}

// Job identifies the permit step being filled.
type Job struct {
	Number   string `json:"number,omitempty"`
	Date     string `json:"date,omitempty"`
	WorkType string `json:"work_type,omitempty"`
}

// Request/Response structures
type PlanRequest struct {
	Description     string `json:"description" form:"description" query:"description"`
	Characteristics string `json:"characteristics" form:"characteristics" query:"characteristics"`
	WorkType        string `json:"work_type" form:"work_type" query:"work_type"`
	Number          string `json:"number" form:"number" query:"number"`
	Date            string `json:"date" form:"date" query:"date"`
}

type PlanResponse struct {
	HotWork bool   `json:"hot_work"`
	Plan    Plan   `json:"plan"`
	Report  string `json:"report"`
}

type ReconcileRequest struct {
	Snapshot FormSnapshot `json:"snapshot"`
	Apply    bool         `json:"apply"`
}

type ReconcileResponse struct {
	Outcome  *Outcome               `json:"outcome"`
	Actions  []ReconciliationAction `json:"actions"`
	Summary  string                 `json:"summary"`
	Snapshot *FormSnapshot          `json:"snapshot,omitempty"`
}

type ReloadResponse struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
