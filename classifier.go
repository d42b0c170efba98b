package main

import "strings"

// Classifier derives a HazardContext from the two free-text fields of a job.
type Classifier struct {
	book *PhraseBook
}

// NewClassifier uses book, or the built-in phrase book when book is nil.
func NewClassifier(book *PhraseBook) *Classifier {
	if book == nil {
		book = DefaultPhraseBook()
	}
	return &Classifier{book: book}
}

// Classify never fails: absent phrases leave every flag false.
// Predicates are evaluated independently over one haystack made of the
// normalized description followed by the normalized characteristics.
func (c *Classifier) Classify(description, characteristics string) HazardContext {
	haystack := strings.TrimSpace(NormalizeText(description) + " " + NormalizeText(characteristics))

	var flags [flagCount]bool
	if haystack != "" {
		for f := Flag(0); f < flagCount; f++ {
			flags[f] = c.book.predicates[f].Match(haystack)
		}
	}
	return newHazardContext(flags, haystack)
}

// Classify runs the built-in phrase book.
func Classify(description, characteristics string) HazardContext {
	return NewClassifier(nil).Classify(description, characteristics)
}

// IsHotWork reports whether a work-type label denotes hot work.
func IsHotWork(workType string) bool {
	return strings.Contains(NormalizeText(workType), "TRABALHO A QUENTE")
}
