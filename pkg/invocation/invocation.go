// Package invocation turns a script descriptor and parameter values into a
// PowerShell command line, and wraps that line for elevated execution.
package invocation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dkoosis/scriptdeck/pkg/catalog"
)

// delimiter marks a multi-value parameter.
const delimiter = ","

var quoteEscaper = strings.NewReplacer("`", "``", `"`, "`\"", "$", "`$")

// Build produces a single executable invocation line:
//
//	& "<scriptPath>" -Name "value" -Flag -List "a","b"
//
// Parameters are emitted in descriptor order, then any undeclared value keys in
// lexical order. Nil, empty and false values are omitted so the script's own
// defaults apply. Required parameters are not checked here.
func Build(scriptPath string, params []catalog.ParameterSpec, values catalog.Values) string {
	var sb strings.Builder
	sb.WriteString(`& "`)
	sb.WriteString(escape(scriptPath))
	sb.WriteString(`"`)

	declared := make(map[string]catalog.ParamType, len(params))
	for _, p := range params {
		declared[p.Name] = p.Type
		if v, ok := values[p.Name]; ok {
			writeParam(&sb, p.Name, p.Type, v)
		}
	}

	extra := make([]string, 0, len(values))
	for k := range values {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		writeParam(&sb, k, "", values[k])
	}

	return sb.String()
}

func writeParam(sb *strings.Builder, name string, typ catalog.ParamType, value any) {
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if v {
			sb.WriteString(" -" + name)
		}
		return
	case []string:
		value = strings.Join(v, delimiter)
	}

	text := toText(value)
	if text == "" {
		return
	}

	if typ.IsFlag() {
		if on, err := strconv.ParseBool(strings.TrimSpace(text)); err == nil {
			if on {
				sb.WriteString(" -" + name)
			}
			return
		}
	}

	if strings.Contains(text, delimiter) {
		list := quotedList(text)
		if list == "" {
			return
		}
		sb.WriteString(" -" + name + " " + list)
		return
	}

	sb.WriteString(" -" + name + ` "` + escape(text) + `"`)
}

// quotedList encodes "a, b,,c" as the PowerShell array literal "a","b","c".
func quotedList(text string) string {
	var items []string
	for _, piece := range strings.Split(text, delimiter) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		items = append(items, `"`+escape(piece)+`"`)
	}
	return strings.Join(items, delimiter)
}

func toText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// escape makes text safe inside a PowerShell double-quoted string.
func escape(text string) string {
	return quoteEscaper.Replace(text)
}
