// Package wizard runs multi-step forms as finite state machines. A
// Definition lists the steps in order; moving forward is only possible one
// step at a time and only once the step being left validates, moving back
// is allowed to any earlier step, and the last step is terminal.
package wizard

import (
	"errors"
	"fmt"
)

type Step string

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrTerminal          = errors.New("wizard already completed")
	ErrUnknownStep       = errors.New("unknown wizard step")
)

// StepError reports a step whose data did not validate.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cannot leave %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Validator checks the data collected by one step.
type Validator[T any] func(data *T) error

// Definition is an immutable wizard description shared by all its runs.
type Definition[T any] struct {
	name       string
	steps      []Step
	index      map[Step]int
	validators map[Step]Validator[T]
	table      map[Step][]Step
}

// New builds a definition from steps in order. validators may omit steps
// that need no checking.
func New[T any](name string, steps []Step, validators map[Step]Validator[T]) *Definition[T] {
	if len(steps) < 2 {
		panic("wizard: a definition needs at least two steps")
	}
	d := &Definition[T]{
		name:       name,
		steps:      steps,
		index:      make(map[Step]int, len(steps)),
		validators: validators,
		table:      make(map[Step][]Step, len(steps)),
	}
	for i, s := range steps {
		d.index[s] = i
	}
	for i, s := range steps[:len(steps)-1] {
		next := []Step{steps[i+1]}
		d.table[s] = append(next, steps[:i]...)
	}
	return d
}

func (d *Definition[T]) Name() string { return d.name }

// Steps returns the steps in order.
func (d *Definition[T]) Steps() []Step {
	return append([]Step(nil), d.steps...)
}

// First returns the entry step.
func (d *Definition[T]) First() Step { return d.steps[0] }

// Final returns the terminal step.
func (d *Definition[T]) Final() Step { return d.steps[len(d.steps)-1] }

// Targets returns the steps reachable from s.
func (d *Definition[T]) Targets(s Step) []Step {
	return append([]Step(nil), d.table[s]...)
}

// Allowed reports whether the table contains from -> to.
func (d *Definition[T]) Allowed(from, to Step) bool {
	for _, t := range d.table[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Validate runs the validator of s against data.
func (d *Definition[T]) Validate(s Step, data *T) error {
	v, ok := d.validators[s]
	if !ok || v == nil {
		return nil
	}
	if err := v(data); err != nil {
		return &StepError{Step: s, Err: err}
	}
	return nil
}

// Start begins a run at the first step.
func (d *Definition[T]) Start(data *T) *Machine[T] {
	return &Machine[T]{def: d, step: d.First(), data: data}
}

// Resume continues a run saved at step.
func (d *Definition[T]) Resume(step Step, data *T) (*Machine[T], error) {
	if _, ok := d.index[step]; !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownStep, d.name, step)
	}
	return &Machine[T]{def: d, step: step, data: data}, nil
}

// Machine is one run of a wizard over data.
type Machine[T any] struct {
	def  *Definition[T]
	step Step
	data *T
}

func (m *Machine[T]) Step() Step { return m.step }

func (m *Machine[T]) Data() *T { return m.data }

// Done reports whether the run reached the terminal step.
func (m *Machine[T]) Done() bool { return m.step == m.def.Final() }

// Edit changes the data. Completed runs are read-only.
func (m *Machine[T]) Edit(fn func(data *T)) error {
	if m.Done() {
		return ErrTerminal
	}
	fn(m.data)
	return nil
}

// Next validates the current step and moves to the following one. Entering
// the terminal step revalidates every step, since earlier data may have
// been edited after it was first accepted.
func (m *Machine[T]) Next() error {
	if m.Done() {
		return ErrTerminal
	}
	next := m.def.steps[m.def.index[m.step]+1]
	return m.Goto(next)
}

// Back returns to an earlier step without validating.
func (m *Machine[T]) Back(to Step) error {
	if m.Done() {
		return ErrTerminal
	}
	if _, ok := m.def.index[to]; !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownStep, m.def.name, to)
	}
	if m.def.index[to] >= m.def.index[m.step] {
		return fmt.Errorf("%w: %s -> %s is not backwards", ErrInvalidTransition, m.step, to)
	}
	return m.Goto(to)
}

// Goto moves to any step the table allows from the current one.
func (m *Machine[T]) Goto(to Step) error {
	if m.Done() {
		return ErrTerminal
	}
	if !m.def.Allowed(m.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.step, to)
	}
	if m.def.index[to] > m.def.index[m.step] {
		check := []Step{m.step}
		if to == m.def.Final() {
			check = m.def.steps[:len(m.def.steps)-1]
		}
		for _, s := range check {
			if err := m.def.Validate(s, m.data); err != nil {
				return err
			}
		}
	}
	m.step = to
	return nil
}
