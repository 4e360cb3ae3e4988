package model

import (
	"errors"
	"fmt"
	"strings"
)

// State is one step of the configured progression. Order in Metadata.States matters:
// the first entry is the initial state and the last is the terminal ("done") state.
type State struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type Group struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Template struct {
	Name     string           `json:"name"`
	Subtasks []TaskAttributes `json:"subtasks"`
}

type Metadata struct {
	States    []State    `json:"states"`
	Groups    []Group    `json:"groups"`
	Templates []Template `json:"templates"`
}

var ErrNoStates = errors.New("metadata must define at least one state")

func DefaultMetadata() Metadata {
	return Metadata{
		States: []State{
			{Name: "todo", Color: "red", Icon: "☐"},
			{Name: "wip", Color: "yellow", Icon: "◐"},
			{Name: "done", Color: "green", Icon: "☑"},
		},
		Groups:    []Group{},
		Templates: []Template{},
	}
}

func (m Metadata) Validate() error {
	if len(m.States) == 0 {
		return ErrNoStates
	}
	seen := map[string]bool{}
	for i, s := range m.States {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("states[%d].name is empty", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate state name: %q", name)
		}
		seen[name] = true
	}
	seen = map[string]bool{}
	for i, t := range m.Templates {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("templates[%d].name is empty", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate template name: %q", name)
		}
		seen[name] = true
	}
	return nil
}

func (m Metadata) InitialState() string {
	if len(m.States) == 0 {
		return ""
	}
	return m.States[0].Name
}

func (m Metadata) TerminalState() string {
	if len(m.States) == 0 {
		return ""
	}
	return m.States[len(m.States)-1].Name
}

func (m Metadata) FindGroup(name string) (Group, bool) {
	name = strings.TrimSpace(name)
	for _, g := range m.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

func (m Metadata) FindTemplate(name string) (Template, bool) {
	name = strings.TrimSpace(name)
	for _, t := range m.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
