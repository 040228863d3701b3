package led

import (
	"errors"
	"fmt"
	"slices"
)

// Selector keeps exactly one LED of a group lit.
// It is not safe for concurrent use; the owner serializes calls.
type Selector struct {
	controller Controller
	names      []string
}

// NewSelector creates a selector over the given LED names. Every name must
// be one the controller drives.
func NewSelector(controller Controller, names ...string) (*Selector, error) {
	available := controller.Available()
	for _, name := range names {
		if !slices.Contains(available, name) {
			return nil, fmt.Errorf("LED %q not available, have %v", name, available)
		}
	}
	return &Selector{
		controller: controller,
		names:      slices.Clone(names),
	}, nil
}

// Select lights name. The other LEDs are switched off first so two LEDs are
// never lit at once, even if a later write fails.
func (s *Selector) Select(name string) error {
	if !slices.Contains(s.names, name) {
		return fmt.Errorf("LED %q is not part of the selector", name)
	}

	var errs []error
	for _, other := range s.names {
		if other == name {
			continue
		}
		if err := s.controller.Set(other, false); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		// Lighting name now could leave a stale LED on beside it.
		return errors.Join(errs...)
	}
	return s.controller.Set(name, true)
}

// Off switches every LED of the group off.
func (s *Selector) Off() error {
	var errs []error
	for _, name := range s.names {
		if err := s.controller.Set(name, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
