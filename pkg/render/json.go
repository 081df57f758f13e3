package render

import (
	"encoding/json"

	"github.com/dkoosis/scriptdeck/pkg/outcome"
)

// JSON renders values as indented JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonRun struct {
	Script string `json:"script"`
	*outcome.Result
}

// Scripts formats a listing.
func (j *JSON) Scripts(rows []ScriptRow) string {
	if rows == nil {
		rows = []ScriptRow{}
	}
	return j.encode(map[string]any{"scripts": rows})
}

// Result formats a finished run.
func (j *JSON) Result(name string, res *outcome.Result) string {
	return j.encode(jsonRun{Script: name, Result: res})
}

// History formats past runs.
func (j *JSON) History(rows []HistoryRow) string {
	if rows == nil {
		rows = []HistoryRow{}
	}
	return j.encode(map[string]any{"runs": rows})
}

func (j *JSON) encode(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON) + "\n"
	}
	return string(data) + "\n"
}
