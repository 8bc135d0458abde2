package presentation

import (
	"github.com/zjrosen/walkabout/internal/domain"
	"github.com/zjrosen/walkabout/internal/predicate"
)

// PredicateDTO is one predicate in evaluation order.
type PredicateDTO struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Weight uint64 `json:"weight"`
}

// ElectionDTO is the candidate elected for one lookup name.
type ElectionDTO struct {
	Name      string   `json:"name"`
	Candidate string   `json:"candidate"`
	Subjects  []string `json:"subjects"`
}

// EntryDTO is one table entry as seen by explain.
type EntryDTO struct {
	Candidate   string   `json:"candidate"`
	Rank        string   `json:"rank"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Predicates  []string `json:"predicates"` // always present, empty for unconditional entries
	Matched     bool     `json:"matched"`
	Selected    bool     `json:"selected"`
}

// ExplanationDTO is the full trace of one lookup.
type ExplanationDTO struct {
	Name     string     `json:"name"`
	Subjects []string   `json:"subjects"`
	Entries  []EntryDTO `json:"entries"`
}

// FromWeighted converts predicates in evaluation order.
func FromWeighted(order []predicate.Weighted) []PredicateDTO {
	dtos := make([]PredicateDTO, len(order))
	for i, w := range order {
		dtos[i] = PredicateDTO{Index: w.Index, Name: w.Name, Weight: w.Weight}
	}
	return dtos
}

// FromNamed converts the result of an all-names lookup.
func FromNamed(named []domain.Named[string], subjects []string) []ElectionDTO {
	dtos := make([]ElectionDTO, len(named))
	for i, n := range named {
		dtos[i] = ElectionDTO{Name: n.Name, Candidate: n.Candidate, Subjects: subjects}
	}
	return dtos
}

// FromExplanations converts an explain result for the table consulted by name.
func FromExplanations(name string, subjects []string, xs []domain.Explanation[string]) ExplanationDTO {
	entries := make([]EntryDTO, len(xs))
	for i, x := range xs {
		texts := x.Texts
		if texts == nil {
			texts = []string{}
		}
		entries[i] = EntryDTO{
			Candidate:   x.Entry.Candidate,
			Rank:        x.Entry.Rank.String(),
			Fingerprint: string(x.Entry.Fingerprint),
			Predicates:  texts,
			Matched:     x.Matched,
			Selected:    x.Selected,
		}
	}
	return ExplanationDTO{Name: name, Subjects: subjects, Entries: entries}
}
