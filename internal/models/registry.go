package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/sysid/internal/dynamo"
)

var registry = map[string]func() dynamo.Model{
	"decay":       func() dynamo.Model { return NewDecay() },
	"pendulum":    func() dynamo.Model { return NewPendulum() },
	"spring_mass": func() dynamo.Model { return NewSpringMass() },
}

// Lookup returns the model registered under name.
func Lookup(name string) (dynamo.Model, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

// Names lists all registered model names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
