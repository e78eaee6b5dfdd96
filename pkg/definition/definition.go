package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of one machine.
//
//	name: orders
//	start: pending
//	retries: 10
//	blocking_wait: 100ms
//	states:
//	  - name: pending
//	    transitions:
//	      - {event: pay, to: paid, action: charge}
//	      - {event: touch, action: audit}   # no "to": stays in pending
//	  - name: paid
//	  - name: shipping
//	    blocking: true
type Definition struct {
	Name         string     `yaml:"name"`
	Start        string     `yaml:"start"`
	Retries      *int       `yaml:"retries,omitempty"`
	BlockingWait string     `yaml:"blocking_wait,omitempty"`
	States       []StateDef `yaml:"states"`
}

type StateDef struct {
	Name        string          `yaml:"name"`
	Blocking    bool            `yaml:"blocking,omitempty"`
	Transitions []TransitionDef `yaml:"transitions,omitempty"`
}

// TransitionDef moves to To on Event and runs the named Action. An empty To
// keeps the current state; an empty Action is a pure state change.
type TransitionDef struct {
	Event  string `yaml:"event"`
	To     string `yaml:"to,omitempty"`
	Action string `yaml:"action,omitempty"`
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, errors.Join(ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads a definition from a file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadDefinition, err)
	}
	return Parse(data)
}

// LoadFS reads a definition from fsys, typically an embed.FS.
func LoadFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Join(ErrReadDefinition, err)
	}
	return Parse(data)
}

// Validate checks that every referenced state is declared exactly once.
func (d *Definition) Validate() error {
	if d.Start == "" {
		return fmt.Errorf("%w: start state is required", ErrInvalidDefinition)
	}
	if d.Retries != nil && *d.Retries < 0 {
		return fmt.Errorf("%w: retries cannot be negative", ErrInvalidDefinition)
	}
	if _, err := d.blockingWait(); err != nil {
		return err
	}

	declared := make(map[string]bool, len(d.States))
	for _, s := range d.States {
		if s.Name == "" {
			return fmt.Errorf("%w: state without a name", ErrInvalidDefinition)
		}
		if declared[s.Name] {
			return fmt.Errorf("%w: state '%s' declared twice", ErrInvalidDefinition, s.Name)
		}
		declared[s.Name] = true
	}
	if !declared[d.Start] {
		return fmt.Errorf("%w: start state '%s' is not declared", ErrInvalidDefinition, d.Start)
	}

	for _, s := range d.States {
		events := make(map[string]bool, len(s.Transitions))
		for _, t := range s.Transitions {
			if t.Event == "" {
				return fmt.Errorf("%w: transition without an event in state '%s'", ErrInvalidDefinition, s.Name)
			}
			if events[t.Event] {
				return fmt.Errorf("%w: state '%s' handles event '%s' twice", ErrInvalidDefinition, s.Name, t.Event)
			}
			events[t.Event] = true
			if t.To != "" && !declared[t.To] {
				return fmt.Errorf("%w: %s(%s) targets undeclared state '%s'", ErrInvalidDefinition, s.Name, t.Event, t.To)
			}
		}
	}
	return nil
}

// ActionNames lists the distinct action names referenced by the definition.
func (d *Definition) ActionNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range d.States {
		for _, t := range s.Transitions {
			if t.Action != "" && !seen[t.Action] {
				seen[t.Action] = true
				names = append(names, t.Action)
			}
		}
	}
	return names
}

func (d *Definition) blockingWait() (time.Duration, error) {
	if d.BlockingWait == "" {
		return 0, nil
	}
	wait, err := time.ParseDuration(d.BlockingWait)
	if err != nil {
		return 0, errors.Join(ErrInvalidDefinition, err)
	}
	if wait < 0 {
		return 0, fmt.Errorf("%w: blocking_wait cannot be negative", ErrInvalidDefinition)
	}
	return wait, nil
}
