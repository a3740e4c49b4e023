// Package verification holds the mutable slot-filling state of one
// verification session: a record with exactly one slot per (category, field)
// pair of the schema, each either unset or holding a final typed value.
//
// A Record belongs to a single session and is mutated strictly turn-by-turn
// by the flow manager; it is not safe for concurrent use and does not need
// to be.
package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
)

// ErrAlreadySet is returned by [Record.Set] when the target slot already
// holds a value. Accepted answers are final; re-setting a slot indicates an
// integration bug, not a user error, and must be surfaced to the caller.
var ErrAlreadySet = errors.New("field already set")

// InvalidFieldError describes a rejected Set call. It wraps [ErrAlreadySet]
// when the slot was already filled.
type InvalidFieldError struct {
	Category schema.Category
	Field    string
	err      error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("record: set %s.%s: %v", e.Category, e.Field, e.err)
}

func (e *InvalidFieldError) Unwrap() error { return e.err }

// Record maps every (category, field) pair of the schema to a value-or-unset
// slot. Construct with [NewRecord]; the zero value is not usable.
type Record struct {
	schema *schema.Schema
	slots  map[schema.Category]map[string]*FieldValue
}

// NewRecord creates a Record with one unset slot for every (category, field)
// pair in s.
func NewRecord(s *schema.Schema) *Record {
	slots := make(map[schema.Category]map[string]*FieldValue, len(s.Categories()))
	for _, cat := range s.Categories() {
		fields := s.Fields(cat)
		slots[cat] = make(map[string]*FieldValue, len(fields))
		for _, f := range fields {
			slots[cat][f.Name] = nil
		}
	}
	return &Record{schema: s, slots: slots}
}

// Get returns the value stored for (category, field) and whether it is set.
// Unknown keys are a programmer error and panic.
func (r *Record) Get(category schema.Category, field string) (FieldValue, bool) {
	v := r.slot(category, field)
	if v == nil {
		return FieldValue{}, false
	}
	return *v, true
}

// Set fills the slot for (category, field) with value. Slots transition
// unset→value exactly once: a second Set on the same slot returns an
// [*InvalidFieldError] wrapping [ErrAlreadySet] and leaves the stored value
// unchanged.
func (r *Record) Set(category schema.Category, field string, value FieldValue) error {
	if r.slot(category, field) != nil {
		return &InvalidFieldError{Category: category, Field: field, err: ErrAlreadySet}
	}
	v := value
	r.slots[category][field] = &v
	return nil
}

// FirstUnset returns the earliest-declared unset field in category, or
// (FieldSpec{}, false) when the category is complete.
func (r *Record) FirstUnset(category schema.Category) (schema.FieldSpec, bool) {
	for _, f := range r.schema.Fields(category) {
		if r.slots[category][f.Name] == nil {
			return f, true
		}
	}
	return schema.FieldSpec{}, false
}

// NextUnset returns the first unset field across all categories in schema
// order, or (FieldSpec{}, false) when the record is complete.
func (r *Record) NextUnset() (schema.FieldSpec, bool) {
	for _, cat := range r.schema.Categories() {
		if f, ok := r.FirstUnset(cat); ok {
			return f, true
		}
	}
	return schema.FieldSpec{}, false
}

// IsCategoryComplete reports whether every field of category is set.
func (r *Record) IsCategoryComplete(category schema.Category) bool {
	_, unset := r.FirstUnset(category)
	return !unset
}

// IsComplete reports whether every slot of every category is set.
func (r *Record) IsComplete() bool {
	for _, cat := range r.schema.Categories() {
		if !r.IsCategoryComplete(cat) {
			return false
		}
	}
	return true
}

// Summary is a point-in-time, non-mutating view of the record: the collected
// values, the still-missing slots in schema order, and the overall status.
type Summary struct {
	Collected map[schema.Category]map[string]FieldValue `json:"collected"`
	Missing   []string                                  `json:"missing"`
	Timestamp time.Time                                 `json:"timestamp"`
	Status    string                                    `json:"status"`
}

// Summary statuses.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// Summary computes the current [Summary]. Missing entries are rendered as
// "category.field" in schema traversal order; Status is "complete" exactly
// when Missing is empty.
func (r *Record) Summary() Summary {
	s := Summary{
		Collected: make(map[schema.Category]map[string]FieldValue, len(r.schema.Categories())),
		Missing:   []string{},
		Timestamp: time.Now(),
		Status:    StatusIncomplete,
	}

	for _, cat := range r.schema.Categories() {
		s.Collected[cat] = make(map[string]FieldValue)
		for _, f := range r.schema.Fields(cat) {
			if v := r.slots[cat][f.Name]; v != nil {
				s.Collected[cat][f.Name] = *v
			} else {
				s.Missing = append(s.Missing, fmt.Sprintf("%s.%s", cat, f.Name))
			}
		}
	}

	if len(s.Missing) == 0 {
		s.Status = StatusComplete
	}
	return s
}

// slot returns the slot pointer for (category, field), panicking on unknown
// keys. Schema and record are constructed from the same source, so a miss
// here is always a programming error.
func (r *Record) slot(category schema.Category, field string) *FieldValue {
	fields, ok := r.slots[category]
	if !ok {
		panic(fmt.Sprintf("record: unknown category %q", category))
	}
	v, ok := fields[field]
	if !ok {
		panic(fmt.Sprintf("record: unknown field %q.%q", category, field))
	}
	return v
}
