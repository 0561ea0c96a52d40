package gradebook

import (
	"strings"

	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

// MatchPolicy decides what happens when a column prefix matches more than
// one gradebook column.
type MatchPolicy int

const (
	// Unique fails on more than one match.
	Unique MatchPolicy = iota
	// FirstMatch takes the first match in gradebook column order.
	FirstMatch
)

func (p MatchPolicy) String() string {
	if p == FirstMatch {
		return "first-match"
	}
	return "unique"
}

type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Exact
	UniquePrefix
	FirstOfMany
	Ambiguous
)

// Resolution is the outcome of looking a column up by name or prefix.
type Resolution struct {
	Kind       ResolutionKind
	Query      string
	Column     string
	Candidates []string
}

func (r Resolution) OK() bool {
	return r.Kind == Exact || r.Kind == UniquePrefix || r.Kind == FirstOfMany
}

// Err converts an unusable resolution into a configuration error.
func (r Resolution) Err() error {
	switch r.Kind {
	case NotFound:
		return apperrors.ConfigurationError{Columns: []string{r.Query}, Err: apperrors.ErrColumnNotFound}
	case Ambiguous:
		return apperrors.ConfigurationError{Columns: r.Candidates, Err: apperrors.ErrAmbiguousColumn}
	}
	return nil
}

// Resolve finds a column by exact name or by prefix among columns.
func Resolve(columns []string, query string, policy MatchPolicy) Resolution {
	res := Resolution{Query: query}
	for _, c := range columns {
		if c == query {
			res.Kind, res.Column = Exact, c
			res.Candidates = []string{c}
			return res
		}
	}

	for _, c := range columns {
		if strings.HasPrefix(c, query) {
			res.Candidates = append(res.Candidates, c)
		}
	}

	switch {
	case len(res.Candidates) == 0:
		res.Kind = NotFound
	case len(res.Candidates) == 1:
		res.Kind, res.Column = UniquePrefix, res.Candidates[0]
	case policy == FirstMatch:
		res.Kind, res.Column = FirstOfMany, res.Candidates[0]
	default:
		res.Kind = Ambiguous
	}
	return res
}
