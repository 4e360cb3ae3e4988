package statusutil

import (
	"fmt"
	"strings"

	"tasktree-cli/internal/model"
)

// NormalizeStateName resolves user input against the configured states.
// Exact matches win; otherwise a case-insensitive match is accepted.
func NormalizeStateName(meta model.Metadata, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("invalid state: empty")
	}
	for _, st := range meta.States {
		if st.Name == s {
			return st.Name, nil
		}
	}
	for _, st := range meta.States {
		if strings.EqualFold(st.Name, s) {
			return st.Name, nil
		}
	}
	return "", fmt.Errorf("invalid state: %q (expected one of %s)", s, strings.Join(Names(meta), "|"))
}

func Names(meta model.Metadata) []string {
	out := make([]string, 0, len(meta.States))
	for _, st := range meta.States {
		out = append(out, st.Name)
	}
	return out
}

// StateIndex returns the position of name in the configured progression.
func StateIndex(meta model.Metadata, name string) (int, bool) {
	for i, st := range meta.States {
		if st.Name == name {
			return i, true
		}
	}
	return -1, false
}

func ValidateState(meta model.Metadata, name string) bool {
	_, ok := StateIndex(meta, name)
	return ok
}

func IsTerminal(meta model.Metadata, name string) bool {
	return name != "" && name == meta.TerminalState()
}

// Next returns the state after name, or name itself when it is already terminal.
func Next(meta model.Metadata, name string) (string, bool) {
	i, ok := StateIndex(meta, name)
	if !ok {
		return "", false
	}
	if name == meta.TerminalState() {
		return name, true
	}
	return meta.States[i+1].Name, true
}

func Lookup(meta model.Metadata, name string) (model.State, bool) {
	i, ok := StateIndex(meta, name)
	if !ok {
		return model.State{}, false
	}
	return meta.States[i], true
}
