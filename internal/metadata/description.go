package metadata

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// DefaultLocale is used by parsers and lookup mappers for translatable values.
const DefaultLocale = "en"

// ReplaceMode controls how SetStatements treats existing statements.
type ReplaceMode int

const (
	ReplaceNothing  ReplaceMode = iota // fail if any given property already has a value
	ReplaceProperty                    // overwrite only the given properties
	ReplaceAll                         // clear everything, then write
)

// Description is an instance of structured data under a schema: a bag of
// property -> value(s) statements, optionally keyed by locale.
type Description struct {
	AssocKind string
	AssocID   string

	schema *Schema
	// property -> locale ("" when not translatable) -> values
	stmts map[string]map[string][]any
}

// NewDescription creates an empty description for schema.
func NewDescription(schema *Schema, assocKind, assocID string) *Description {
	return &Description{
		AssocKind: assocKind,
		AssocID:   assocID,
		schema:    schema,
		stmts:     make(map[string]map[string][]any),
	}
}

// Schema returns the description's schema.
func (d *Description) Schema() *Schema {
	return d.schema
}

// SchemaName returns the name of the description's schema.
func (d *Description) SchemaName() string {
	return d.schema.name
}

// AddStatement adds a value for property. Many-cardinality properties append;
// One-cardinality properties fail with a CardinalityError if a value exists.
// Translatable properties require exactly one locale argument.
func (d *Description) AddStatement(property string, value any, locale ...string) error {
	loc := ""
	if len(locale) > 0 {
		loc = locale[0]
	}
	return d.add(d.stmts, property, value, loc)
}

func (d *Description) add(target map[string]map[string][]any, property string, value any, locale string) error {
	p, ok := d.schema.props[property]
	if !ok {
		return d.invalid(property, &UnknownPropertyError{Schema: d.schema.name, Property: property})
	}
	if p.Translatable && locale == "" {
		return d.invalid(property, fmt.Errorf("%w: translatable property needs a locale", ErrLocale))
	}
	if !p.Translatable && locale != "" {
		return d.invalid(property, fmt.Errorf("%w: property is not translatable", ErrLocale))
	}

	v, err := p.checkValue(value)
	if err != nil {
		return d.invalid(property, fmt.Errorf("%w: %v", ErrValueKind, err))
	}

	byLocale := target[property]
	if byLocale == nil {
		byLocale = make(map[string][]any)
		target[property] = byLocale
	}
	if p.Cardinality == One && len(byLocale[locale]) > 0 {
		return d.invalid(property, &CardinalityError{Property: property, Locale: locale})
	}
	byLocale[locale] = append(byLocale[locale], v)
	return nil
}

func (d *Description) invalid(property string, err error) error {
	return &ValidationError{Schema: d.schema.name, Property: property, Err: err}
}

// RemoveStatement removes all values of property. It returns false if the
// property had no statement.
func (d *Description) RemoveStatement(property string) bool {
	if _, ok := d.stmts[property]; !ok {
		return false
	}
	delete(d.stmts, property)
	return true
}

// SetStatements applies a batch of statements. Values may be a single value,
// a slice of values, or for translatable properties a map of locale to value
// or values. The batch is validated in full before the description changes:
// on error the description is left exactly as it was.
func (d *Description) SetStatements(statements map[string]any, mode ReplaceMode) error {
	var scratch map[string]map[string][]any
	if mode == ReplaceAll {
		scratch = make(map[string]map[string][]any)
	} else {
		scratch = copyStatements(d.stmts)
	}

	// Deterministic error reporting
	keys := make([]string, 0, len(statements))
	for k := range statements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prop := range keys {
		p, ok := d.schema.props[prop]
		if !ok {
			return d.invalid(prop, &UnknownPropertyError{Schema: d.schema.name, Property: prop})
		}
		if _, exists := scratch[prop]; exists {
			if mode == ReplaceNothing {
				return d.invalid(prop, ErrStatementExists)
			}
			delete(scratch, prop)
		}

		raw := statements[prop]
		if p.Translatable {
			byLocale, ok := raw.(map[string]any)
			if !ok {
				return d.invalid(prop, fmt.Errorf("%w: translatable values must be keyed by locale, got %T", ErrLocale, raw))
			}
			locales := make([]string, 0, len(byLocale))
			for l := range byLocale {
				locales = append(locales, l)
			}
			sort.Strings(locales)
			for _, loc := range locales {
				for _, v := range expandValues(byLocale[loc]) {
					if err := d.add(scratch, prop, v, loc); err != nil {
						return err
					}
				}
			}
			continue
		}

		for _, v := range expandValues(raw) {
			if err := d.add(scratch, prop, v, ""); err != nil {
				return err
			}
		}
	}

	d.stmts = scratch
	return nil
}

// expandValues turns a value or slice of values into a slice.
func expandValues(raw any) []any {
	switch vs := raw.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	case []*Description:
		out := make([]any, len(vs))
		for i, c := range vs {
			out[i] = c
		}
		return out
	default:
		return []any{raw}
	}
}

// HasStatement reports whether property has at least one value.
func (d *Description) HasStatement(property string) bool {
	for _, vs := range d.stmts[property] {
		if len(vs) > 0 {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the description holds no statements.
func (d *Description) IsEmpty() bool {
	return len(d.stmts) == 0
}

// Statement returns the value(s) of property in the same shape AllData uses,
// or nil when unset.
func (d *Description) Statement(property string) any {
	byLocale, ok := d.stmts[property]
	if !ok {
		return nil
	}
	return exportStatement(d.schema.props[property], byLocale)
}

// LocalizedStatement returns the values of a translatable property for locale.
func (d *Description) LocalizedStatement(property, locale string) []any {
	return append([]any(nil), d.stmts[property][locale]...)
}

// String returns the first string value of property. For translatable
// properties the default locale is preferred, then the first locale in
// sorted order.
func (d *Description) String(property string) string {
	vs := d.firstLocaleValues(property)
	if len(vs) == 0 {
		return ""
	}
	if s, ok := vs[0].(string); ok {
		return s
	}
	return ""
}

// Strings returns all string values of property.
func (d *Description) Strings(property string) []string {
	var out []string
	for _, v := range d.firstLocaleValues(property) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Int returns the first integer value of property.
func (d *Description) Int(property string) (int, bool) {
	vs := d.firstLocaleValues(property)
	if len(vs) == 0 {
		return 0, false
	}
	n, ok := vs[0].(int)
	return n, ok
}

// Composites returns copies of the nested descriptions held by property.
func (d *Description) Composites(property string) []*Description {
	var out []*Description
	for _, v := range d.stmts[property][""] {
		if c, ok := v.(*Description); ok {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (d *Description) firstLocaleValues(property string) []any {
	byLocale := d.stmts[property]
	if len(byLocale) == 0 {
		return nil
	}
	if vs, ok := byLocale[""]; ok {
		return vs
	}
	if vs, ok := byLocale[DefaultLocale]; ok {
		return vs
	}
	locales := make([]string, 0, len(byLocale))
	for l := range byLocale {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return byLocale[locales[0]]
}

// AllData returns a deep copy of every statement. Non-translatable One
// properties map to a value, Many properties to []any, translatable
// properties to map[locale]value-or-[]any. Composite values are exported as
// nested maps.
func (d *Description) AllData() map[string]any {
	out := make(map[string]any, len(d.stmts))
	for prop, byLocale := range d.stmts {
		out[prop] = exportStatement(d.schema.props[prop], byLocale)
	}
	return out
}

func exportStatement(p Property, byLocale map[string][]any) any {
	exportValues := func(vs []any) any {
		conv := make([]any, len(vs))
		for i, v := range vs {
			if c, ok := v.(*Description); ok {
				conv[i] = c.AllData()
			} else {
				conv[i] = v
			}
		}
		if p.Cardinality == One && len(conv) == 1 {
			return conv[0]
		}
		return conv
	}

	if !p.Translatable {
		return exportValues(byLocale[""])
	}
	m := make(map[string]any, len(byLocale))
	for loc, vs := range byLocale {
		m[loc] = exportValues(vs)
	}
	return m
}

// Equal reports whether two descriptions share a schema and hold the same
// statements. Association fields are not compared.
func (d *Description) Equal(other *Description) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.schema.name != other.schema.name {
		return false
	}
	return reflect.DeepEqual(d.AllData(), other.AllData())
}

// Clone returns a deep copy.
func (d *Description) Clone() *Description {
	if d == nil {
		return nil
	}
	return &Description{
		AssocKind: d.AssocKind,
		AssocID:   d.AssocID,
		schema:    d.schema,
		stmts:     copyStatements(d.stmts),
	}
}

func copyStatements(src map[string]map[string][]any) map[string]map[string][]any {
	dst := make(map[string]map[string][]any, len(src))
	for prop, byLocale := range src {
		m := make(map[string][]any, len(byLocale))
		for loc, vs := range byLocale {
			cp := make([]any, len(vs))
			for i, v := range vs {
				if c, ok := v.(*Description); ok {
					cp[i] = c.Clone()
				} else {
					cp[i] = v
				}
			}
			m[loc] = cp
		}
		dst[prop] = m
	}
	return dst
}

// descriptionJSON is the serialized form of a Description.
type descriptionJSON struct {
	Schema     string         `json:"schema"`
	AssocKind  string         `json:"assoc_kind,omitempty"`
	AssocID    string         `json:"assoc_id,omitempty"`
	Statements map[string]any `json:"statements"`
}

// MarshalJSON encodes the description with its schema name and AllData.
func (d *Description) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptionJSON{
		Schema:     d.schema.name,
		AssocKind:  d.AssocKind,
		AssocID:    d.AssocID,
		Statements: d.AllData(),
	})
}

// Decode parses a description previously encoded with MarshalJSON.
func (r *Registry) Decode(data []byte) (*Description, error) {
	var dj descriptionJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("parsing description: %w", err)
	}
	return r.FromData(dj.Schema, dj.AssocKind, dj.AssocID, dj.Statements)
}

// FromData builds a description from the map shape produced by AllData.
// Nested composite maps are resolved through the registry.
func (r *Registry) FromData(schemaName, assocKind, assocID string, data map[string]any) (*Description, error) {
	schema, ok := r.schemas[schemaName]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schemaName)
	}

	converted := make(map[string]any, len(data))
	for prop, raw := range data {
		p, ok := schema.props[prop]
		if !ok || p.Kind != KindComposite {
			converted[prop] = raw
			continue
		}
		var nested []any
		for _, v := range expandValues(raw) {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q: expected nested %s, got %T", prop, p.Composite, v)
			}
			c, err := r.FromData(p.Composite, "", "", m)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", prop, err)
			}
			nested = append(nested, c)
		}
		converted[prop] = nested
	}

	d := NewDescription(schema, assocKind, assocID)
	if err := d.SetStatements(converted, ReplaceAll); err != nil {
		return nil, err
	}
	return d, nil
}
