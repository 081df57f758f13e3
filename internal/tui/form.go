package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkoosis/scriptdeck/pkg/catalog"
)

// field is one parameter input. Flag parameters toggle, select parameters
// cycle through their options, everything else is free text.
type field struct {
	spec    catalog.ParameterSpec
	input   textinput.Model
	checked bool
	option  int
}

func newField(p catalog.ParameterSpec) field {
	f := field{spec: p}
	switch {
	case p.Type.IsFlag():
		f.checked = isTrue(p.Default)
	case p.Type == catalog.TypeSelect:
		def := p.DefaultString()
		for i, o := range p.Options {
			if o.Value == def {
				f.option = i
			}
		}
	default:
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = p.Placeholder
		ti.CharLimit = 1024
		ti.SetValue(p.DefaultString())
		f.input = ti
	}
	return f
}

func isTrue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func (f field) usesInput() bool {
	return !f.spec.Type.IsFlag() && f.spec.Type != catalog.TypeSelect
}

func (f field) value() any {
	switch {
	case f.spec.Type.IsFlag():
		return f.checked
	case f.spec.Type == catalog.TypeSelect:
		if len(f.spec.Options) == 0 {
			return ""
		}
		return f.spec.Options[f.option].Value
	default:
		return strings.TrimSpace(f.input.Value())
	}
}

func (f field) optionLabel() string {
	if len(f.spec.Options) == 0 {
		return ""
	}
	return f.spec.Options[f.option].DisplayLabel()
}

// form collects values for one script's parameters.
type form struct {
	script catalog.ScriptDescriptor
	fields []field
	focus  int
	errs   []error
}

func newForm(d catalog.ScriptDescriptor) *form {
	f := &form{script: d}
	for _, p := range d.Parameters {
		f.fields = append(f.fields, newField(p))
	}
	f.focusField(0)
	return f
}

func (f *form) focusField(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	if f.fields[f.focus].usesInput() {
		f.fields[f.focus].input.Blur()
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	if f.fields[f.focus].usesInput() {
		return f.fields[f.focus].input.Focus()
	}
	return nil
}

// Values is the form's current content.
func (f *form) Values() catalog.Values {
	values := make(catalog.Values, len(f.fields))
	for _, fl := range f.fields {
		values[fl.spec.Name] = fl.value()
	}
	return values
}

// Validate records and returns the form's validation errors.
func (f *form) Validate() []error {
	f.errs = catalog.ValidateValues(f.script, f.Values())
	return f.errs
}

// update handles navigation and editing keys. It reports whether the user
// asked to submit.
func (f *form) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if f.focus == len(f.fields)-1 {
			return true, nil
		}
		return false, f.focusField(f.focus + 1)
	case "ctrl+s":
		return true, nil
	case "tab", "down":
		return false, f.focusField(f.focus + 1)
	case "shift+tab", "up":
		return false, f.focusField(f.focus - 1)
	}
	if len(f.fields) == 0 {
		return false, nil
	}

	fl := &f.fields[f.focus]
	switch {
	case fl.spec.Type.IsFlag():
		if msg.String() == " " || msg.String() == "x" {
			fl.checked = !fl.checked
		}
	case fl.spec.Type == catalog.TypeSelect:
		n := len(fl.spec.Options)
		if n == 0 {
			break
		}
		switch msg.String() {
		case "right", "l", " ":
			fl.option = (fl.option + 1) % n
		case "left", "h":
			fl.option = (fl.option - 1 + n) % n
		}
	default:
		var cmd tea.Cmd
		fl.input, cmd = fl.input.Update(msg)
		return false, cmd
	}
	return false, nil
}

func (f *form) view(s styles) string {
	var sb strings.Builder
	sb.WriteString(s.header.Render(f.script.Name))
	sb.WriteString("\n")
	if f.script.Description != "" {
		sb.WriteString(s.muted.Render(f.script.Description))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	for i, fl := range f.fields {
		cursor := "  "
		if i == f.focus {
			cursor = s.accent.Render("▸ ")
		}
		label := fl.spec.DisplayLabel()
		if fl.spec.Required && !fl.spec.Type.IsFlag() {
			label += " *"
		}
		fmt.Fprintf(&sb, "%s%s\n    ", cursor, label)
		switch {
		case fl.spec.Type.IsFlag():
			box := "[ ]"
			if fl.checked {
				box = "[x]"
			}
			sb.WriteString(box)
		case fl.spec.Type == catalog.TypeSelect:
			fmt.Fprintf(&sb, "< %s >", fl.optionLabel())
		default:
			sb.WriteString(fl.input.View())
		}
		sb.WriteString("\n")
		if fl.spec.Description != "" {
			sb.WriteString("    " + s.muted.Render(fl.spec.Description) + "\n")
		}
	}
	for _, err := range f.errs {
		sb.WriteString(s.errorText.Render("  " + err.Error()))
		sb.WriteString("\n")
	}
	return sb.String()
}
