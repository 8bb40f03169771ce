// Package tools declares the functions the realtime session may call.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-toolpanel/core/events"
)

var ErrDuplicateTool = errors.New("duplicate tool name")

// Declaration tells the session "you may call function Name with arguments
// shaped like Parameters". It is immutable once built.
type Declaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// NewDeclaration reflects the parameter contract from T. Fields without
// omitempty are required; descriptions come from jsonschema_description tags.
func NewDeclaration[T any](name, description string) Declaration {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(new(T))
	// The session expects a bare object schema, not a standalone document.
	schema.Version = ""
	schema.ID = ""
	if schema.Extras == nil {
		schema.Extras = map[string]any{}
	}
	schema.Extras["strict"] = true

	return Declaration{
		Name:        name,
		Description: strings.TrimSpace(description),
		Parameters:  schema,
	}
}

// Definition returns the wire form sent inside session.update.
func (d Declaration) Definition() events.ToolDefinition {
	return events.ToolDefinition{
		Type:        "function",
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// Registry is the fixed set of tools offered to a session.
type Registry struct {
	declarations []Declaration
}

func NewRegistry(declarations ...Declaration) (*Registry, error) {
	seen := make(map[string]struct{}, len(declarations))
	for _, declaration := range declarations {
		if strings.TrimSpace(declaration.Name) == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if _, ok := seen[declaration.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, declaration.Name)
		}
		seen[declaration.Name] = struct{}{}
	}

	return &Registry{declarations: append([]Declaration(nil), declarations...)}, nil
}

func (r *Registry) Lookup(name string) (Declaration, bool) {
	for _, declaration := range r.declarations {
		if declaration.Name == name {
			return declaration, true
		}
	}
	return Declaration{}, false
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.declarations))
	for _, declaration := range r.declarations {
		names = append(names, declaration.Name)
	}
	return names
}

// SessionUpdate builds a fresh registration event for all declared tools.
func (r *Registry) SessionUpdate() *events.SessionUpdate {
	definitions := make([]events.ToolDefinition, 0, len(r.declarations))
	for _, declaration := range r.declarations {
		definitions = append(definitions, declaration.Definition())
	}
	return events.NewSessionUpdate(definitions)
}
