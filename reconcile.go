package main

import (
	"fmt"
	"strings"
)

// SetDiff is the comparison of one category's expected and observed items.
// Missing drives AddItem actions. Excess is informational: items are never
// removed from the form.
type SetDiff struct {
	Missing []string `json:"missing"`
	Excess  []string `json:"excess,omitempty"`
}

// Diff compares item names on their normalized form and reports them with
// their original spelling: Missing as planned, Excess as observed.
func Diff(expected ItemSet, observed []string) SetDiff {
	seen := NewItemSet(observed...)

	var d SetDiff
	for _, item := range expected.Items() {
		if !seen.Contains(item) {
			d.Missing = append(d.Missing, item)
		}
	}
	for _, item := range seen.Items() {
		if !expected.Contains(item) {
			d.Excess = append(d.Excess, item)
		}
	}
	return d
}

// ItemTier records which lookup rule found an item in the selection list.
type ItemTier string

const (
	TierExact     ItemTier = "exact"
	TierSubstring ItemTier = "substring"
	TierFragment  ItemTier = "fragment"
)

// LookupItem finds the selection-list label for a planned item:
//  1. exact label, whitespace collapsed
//  2. case-insensitive substring of the label
//  3. for the long mandatory-EPI label only, any label containing both
//     "EPI" and "OBRIGATORIOS"; its apostrophe varies between renders
//
// Options are searched in order and the first hit wins. A miss returns
// ErrItemNotFound.
func LookupItem(item string, options []string) (string, ItemTier, error) {
	want := collapseSpace(item)
	for _, opt := range options {
		if collapseSpace(opt) == want {
			return opt, TierExact, nil
		}
	}

	lower := strings.ToLower(want)
	if lower != "" {
		for _, opt := range options {
			if strings.Contains(strings.ToLower(opt), lower) {
				return opt, TierSubstring, nil
			}
		}
	}

	if isMandatoryEPILabel(item) {
		for _, opt := range options {
			if isMandatoryEPILabel(opt) {
				return opt, TierFragment, nil
			}
		}
	}

	return "", "", fmt.Errorf("%w: %q", ErrItemNotFound, item)
}

func isMandatoryEPILabel(label string) bool {
	n := NormalizeText(label)
	return strings.Contains(n, "EPI") && strings.Contains(n, "OBRIGATORIOS")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
