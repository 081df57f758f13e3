// Package catalog describes the runnable scripts shipped with scriptdeck and
// how they are laid out on disk.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParamType is the form type of a script parameter.
type ParamType string

const (
	TypeText     ParamType = "text"
	TypeNumber   ParamType = "number"
	TypeBoolean  ParamType = "boolean"
	TypeSwitch   ParamType = "switch"
	TypeSelect   ParamType = "select"
	TypeTextarea ParamType = "textarea"
)

// IsFlag reports whether the parameter is passed as a bare switch.
func (t ParamType) IsFlag() bool {
	return t == TypeBoolean || t == TypeSwitch
}

// Known reports whether t is one of the declared types.
func (t ParamType) Known() bool {
	switch t {
	case TypeText, TypeNumber, TypeBoolean, TypeSwitch, TypeSelect, TypeTextarea:
		return true
	}
	return false
}

// Option is one choice of a select parameter. Catalogs write it either as a
// bare scalar or as an object with a value and a display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts "x", 3, true or {"value": "x", "label": "X"}.
func (o *Option) UnmarshalJSON(data []byte) error {
	var obj struct {
		Value any    `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*o = Option{Value: scalarString(obj.Value), Label: obj.Label}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case string, float64, bool:
		*o = Option{Value: scalarString(v)}
		return nil
	}
	return fmt.Errorf("option must be a string, number, boolean or object, got %s", data)
}

// DisplayLabel returns the label, falling back to the value.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

var (
	// ErrNotFound is returned when no script matches a lookup.
	ErrNotFound = errors.New("script not found")
	// ErrInvalid is returned when catalog data fails schema validation.
	ErrInvalid = errors.New("invalid catalog")
)

// ParameterSpec defines one named parameter of a script.
type ParameterSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Label       string    `json:"label,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Default     any       `json:"default,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// DisplayLabel returns the label, falling back to a title-cased name.
func (p ParameterSpec) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return titleCaser.String(p.Name)
}

// OptionValues lists the values a select parameter accepts, in order.
func (p ParameterSpec) OptionValues() []string {
	values := make([]string, len(p.Options))
	for i, o := range p.Options {
		values[i] = o.Value
	}
	return values
}

// DefaultString renders the default value as form text.
func (p ParameterSpec) DefaultString() string {
	if p.Default == nil {
		return ""
	}
	return fmt.Sprint(p.Default)
}

// ScriptDescriptor identifies a runnable script. It is immutable once loaded.
type ScriptDescriptor struct {
	Repo          string          `json:"repo"`
	File          string          `json:"file"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	RequiresAdmin bool            `json:"requiresAdmin,omitempty"`
	Parameters    []ParameterSpec `json:"parameters,omitempty"`
}

// Parameter returns the parameter with the given name.
func (d ScriptDescriptor) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Values maps parameter names to runtime values: string, bool, a number, or
// []string. It is built fresh for every execution.
type Values map[string]any

// Catalog is the list of available scripts.
type Catalog struct {
	Scripts []ScriptDescriptor `json:"scripts"`
}

// Empty reports whether no scripts are available.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.Scripts) == 0
}

// Find looks a script up by repo or display name, case-insensitively.
func (c *Catalog) Find(key string) (ScriptDescriptor, error) {
	if c != nil {
		for _, s := range c.Scripts {
			if strings.EqualFold(s.Repo, key) || strings.EqualFold(s.Name, key) {
				return s, nil
			}
		}
	}
	return ScriptDescriptor{}, fmt.Errorf("%w: %q", ErrNotFound, key)
}

// Repos returns the distinct repositories in catalog order.
func (c *Catalog) Repos() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool, len(c.Scripts))
	var repos []string
	for _, s := range c.Scripts {
		if !seen[s.Repo] {
			seen[s.Repo] = true
			repos = append(repos, s.Repo)
		}
	}
	return repos
}

// ValidateValues checks values against the descriptor the way the parameter
// form does before a run. It never modifies values.
func ValidateValues(d ScriptDescriptor, values Values) []error {
	var errs []error
	for _, p := range d.Parameters {
		v, ok := values[p.Name]
		if !ok || isBlank(v) {
			if p.Required && !p.Type.IsFlag() {
				errs = append(errs, fmt.Errorf("%s is required", p.DisplayLabel()))
			}
			continue
		}
		s, isString := v.(string)
		switch p.Type {
		case TypeNumber:
			if isString {
				if _, err := parseNumber(s); err != nil {
					errs = append(errs, fmt.Errorf("%s must be a number", p.DisplayLabel()))
				}
			}
		case TypeSelect:
			allowed := p.OptionValues()
			if isString && len(allowed) > 0 && !containsString(allowed, s) {
				errs = append(errs, fmt.Errorf("%s must be one of %s", p.DisplayLabel(), strings.Join(allowed, ", ")))
			}
		}
	}
	return errs
}

// ExtraKeys returns value keys the descriptor does not declare, sorted.
func ExtraKeys(d ScriptDescriptor, values Values) []string {
	var keys []string
	for k := range values {
		if _, ok := d.Parameter(k); !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Layout resolves on-disk locations under the scripts root.
//
//	<root>/scripts-config.json
//	<root>/bundled/<repo>/<file>
//	<root>/bundled/<repo>/.version
type Layout struct {
	Root string
}

// ConfigPath is the location of the catalog JSON.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Root, "scripts-config.json")
}

// RepoDir is the directory holding a repository's bundled scripts.
func (l Layout) RepoDir(repo string) string {
	return filepath.Join(l.Root, "bundled", repo)
}

// ScriptPath is the resolved path of a descriptor's script file.
func (l Layout) ScriptPath(d ScriptDescriptor) string {
	return filepath.Join(l.RepoDir(d.Repo), d.File)
}

// VersionFile holds the commit SHA a repo's scripts were downloaded at.
func (l Layout) VersionFile(repo string) string {
	return filepath.Join(l.RepoDir(repo), ".version")
}

// Installed reports whether the script file exists locally.
func (l Layout) Installed(d ScriptDescriptor) bool {
	info, err := os.Stat(l.ScriptPath(d))
	return err == nil && !info.IsDir()
}
