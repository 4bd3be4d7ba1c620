package recognize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/gridsnap/internal/layout"
)

var (
	// ErrInvalidPredicate is returned when registering a predicate with the
	// wrong signature, a nil function or an empty name.
	ErrInvalidPredicate = errors.New("invalid predicate")
	// ErrUnknownPreset is returned by FromPreset for an unknown preset name.
	ErrUnknownPreset = errors.New("unknown recognizer preset")
)

// PredicateFunc decides whether cand is interchangeable with ref.
type PredicateFunc func(ref, cand *layout.Object) bool

// Predicate is a named PredicateFunc.
type Predicate struct {
	Name string
	Fn   PredicateFunc
}

// Recognizer is an ordered list of predicates combined with logical AND.
// Register must not be called concurrently with matching.
type Recognizer struct {
	preds []Predicate
}

// New returns a Recognizer without predicates. It matches everything.
func New() *Recognizer { return &Recognizer{} }

// Register appends a predicate. fn must be a PredicateFunc or a
// func(*layout.Object, *layout.Object) bool; anything else is rejected here
// rather than failing at match time.
func (r *Recognizer) Register(name string, fn any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPredicate)
	}
	var pf PredicateFunc
	switch f := fn.(type) {
	case PredicateFunc:
		pf = f
	case func(*layout.Object, *layout.Object) bool:
		pf = f
	default:
		return fmt.Errorf("%w: %s has type %T", ErrInvalidPredicate, name, fn)
	}
	if pf == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalidPredicate, name)
	}
	r.preds = append(r.preds, Predicate{Name: name, Fn: pf})
	return nil
}

// mustRegister is used by presets whose predicates are known to be valid.
func (r *Recognizer) mustRegister(name string, fn PredicateFunc) *Recognizer {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Names returns the predicate names in registration order.
func (r *Recognizer) Names() []string {
	out := make([]string, len(r.preds))
	for i, p := range r.preds {
		out[i] = p.Name
	}
	return out
}

// Validate evaluates every predicate on (ref, cand).
func (r *Recognizer) Validate(ref, cand *layout.Object) []bool {
	out := make([]bool, len(r.preds))
	for i, p := range r.preds {
		out[i] = p.Fn(ref, cand)
	}
	return out
}

// Matches reports whether every predicate holds. It stops at the first
// predicate that fails.
func (r *Recognizer) Matches(ref, cand *layout.Object) bool {
	for _, p := range r.preds {
		if !p.Fn(ref, cand) {
			return false
		}
	}
	return true
}

// SearchSimilar returns the candidates that match ref, in input order.
func (r *Recognizer) SearchSimilar(ref *layout.Object, cands []*layout.Object) []*layout.Object {
	var out []*layout.Object
	for _, c := range cands {
		if r.Matches(ref, c) {
			out = append(out, c)
		}
	}
	return out
}
