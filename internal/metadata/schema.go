// Package metadata provides schema-tagged metadata descriptions, the common
// currency passed between citation filters.
package metadata

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Cardinality states how many values a property may hold.
type Cardinality int

const (
	One  Cardinality = iota // at most one value (per locale)
	Many                    // any number of values, appended in order
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// ValueKind represents the data type of a property value.
type ValueKind string

const (
	KindString     ValueKind = "string"
	KindDate       ValueKind = "date"    // YYYY, YYYY-MM or YYYY-MM-DD
	KindInteger    ValueKind = "integer" // stored as int
	KindURI        ValueKind = "uri"     // absolute URI with scheme
	KindComposite  ValueKind = "composite"
	KindVocabulary ValueKind = "vocabulary" // string restricted to Property.Vocabulary
)

// validKinds is the set of recognized value kinds.
var validKinds = map[ValueKind]bool{
	KindString:     true,
	KindDate:       true,
	KindInteger:    true,
	KindURI:        true,
	KindComposite:  true,
	KindVocabulary: true,
}

// validPropertyName matches property identifiers such as "article-title" or
// "person-group[author]".
var validPropertyName = regexp.MustCompile(`^[a-z][a-z0-9-]*(\[[a-z-]+\])?$`)

// Property declares a single statement key of a schema.
type Property struct {
	Name         string
	Cardinality  Cardinality
	Translatable bool
	Kind         ValueKind
	Composite    string   // schema name of nested descriptions (KindComposite only)
	Vocabulary   []string // allowed values (KindVocabulary only)
}

// Schema is a named, immutable set of allowed properties.
type Schema struct {
	name  string
	props map[string]Property
	order []string
}

// NewSchema validates the property declarations and returns a frozen schema.
func NewSchema(name string, props ...Property) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("schema %q must declare at least one property", name)
	}

	s := &Schema{
		name:  name,
		props: make(map[string]Property, len(props)),
	}
	for _, p := range props {
		if err := validateProperty(p); err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		if _, dup := s.props[p.Name]; dup {
			return nil, fmt.Errorf("schema %q: duplicate property %q", name, p.Name)
		}
		p.Vocabulary = append([]string(nil), p.Vocabulary...)
		s.props[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid declaration.
// It is meant for package-level schema variables.
func MustSchema(name string, props ...Property) *Schema {
	s, err := NewSchema(name, props...)
	if err != nil {
		panic(err)
	}
	return s
}

func validateProperty(p Property) error {
	if !validPropertyName.MatchString(p.Name) {
		return fmt.Errorf("property name %q is not a valid identifier", p.Name)
	}
	if !validKinds[p.Kind] {
		return fmt.Errorf("property %q has invalid kind %q", p.Name, p.Kind)
	}
	if p.Kind == KindComposite && p.Composite == "" {
		return fmt.Errorf("property %q is composite but names no schema", p.Name)
	}
	if p.Kind != KindComposite && p.Composite != "" {
		return fmt.Errorf("property %q names a composite schema but has kind %q", p.Name, p.Kind)
	}
	if p.Kind == KindVocabulary {
		if len(p.Vocabulary) == 0 {
			return fmt.Errorf("property %q has an empty vocabulary", p.Name)
		}
		for _, v := range p.Vocabulary {
			if v == "" {
				return fmt.Errorf("property %q has empty vocabulary value", p.Name)
			}
		}
	}
	if p.Translatable && p.Kind == KindComposite {
		return fmt.Errorf("property %q: composite properties cannot be translatable", p.Name)
	}
	return nil
}

// Name returns the schema identifier.
func (s *Schema) Name() string {
	return s.name
}

// Property returns the declaration for name.
func (s *Schema) Property(name string) (Property, bool) {
	p, ok := s.props[name]
	if !ok {
		return Property{}, false
	}
	p.Vocabulary = append([]string(nil), p.Vocabulary...)
	return p, true
}

// PropertyNames returns the declared property names in declaration order.
func (s *Schema) PropertyNames() []string {
	return append([]string(nil), s.order...)
}

// checkValue validates a single value against the property's kind.
func (p Property) checkValue(v any) (any, error) {
	switch p.Kind {
	case KindString:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return str, nil

	case KindURI:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected URI string, got %T", v)
		}
		if !isAbsoluteURI(str) {
			return nil, fmt.Errorf("%q is not an absolute URI", str)
		}
		return str, nil

	case KindDate:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected date string, got %T", v)
		}
		if _, _, _, ok := SplitDate(str); !ok {
			return nil, fmt.Errorf("%q is not a YYYY[-MM[-DD]] date", str)
		}
		return str, nil

	case KindInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			// JSON numbers decode as float64
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected integer, got float %v", n)
			}
			return int(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}

	case KindVocabulary:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		for _, allowed := range p.Vocabulary {
			if str == allowed {
				return str, nil
			}
		}
		return nil, fmt.Errorf("value %q not in vocabulary %v", str, p.Vocabulary)

	case KindComposite:
		d, ok := v.(*Description)
		if !ok || d == nil {
			return nil, fmt.Errorf("expected *Description, got %T", v)
		}
		if d.schema.name != p.Composite {
			return nil, fmt.Errorf("expected %s description, got %s", p.Composite, d.schema.name)
		}
		return d.Clone(), nil
	}
	return nil, fmt.Errorf("unsupported kind %q", p.Kind)
}

func isAbsoluteURI(s string) bool {
	i := strings.Index(s, ":")
	if i <= 0 || i == len(s)-1 {
		return false
	}
	for j, r := range s[:i] {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if j == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return !strings.ContainsAny(s, " \t\n")
}

// Registry resolves schema names to schemas, for decoding and composites.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry creates a registry holding the given schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.name] = s
	}
	return r
}

// Schema returns the schema registered under name.
func (r *Registry) Schema(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns registered schema names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
