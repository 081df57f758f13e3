package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/scriptdeck/pkg/outcome"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefghij", 5))
	assert.LessOrEqual(t, runewidth.StringWidth(Truncate("日本語のテキスト", 7)), 7)
	assert.Empty(t, Truncate("anything", 0))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.3s", FormatDuration(1340*time.Millisecond))
}

func TestTerminal_Scripts(t *testing.T) {
	t.Parallel()

	r := NewTerminal(MonoTheme(), 60)
	out := r.Scripts([]ScriptRow{
		{Name: "Disk Cleanup", Repo: "DiskCleanup", Description: strings.Repeat("long description ", 10), RequiresAdmin: true, Installed: true},
		{Name: "Users", Repo: "UserReport", Installed: false},
		{Name: "Printers", Repo: "Printers", Installed: true, HasUpdate: true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "+ A Disk Cleanup"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "-   Users"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "^   Printers"), lines[2])
	for _, l := range lines {
		assert.LessOrEqual(t, runewidth.StringWidth(l), 60, l)
	}
}

func TestTerminal_Scripts_When_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No scripts available.\n", NewTerminal(MonoTheme(), 80).Scripts(nil))
}

func TestTerminal_Event(t *testing.T) {
	t.Parallel()

	r := NewTerminal(MonoTheme(), 80)
	assert.Equal(t, "hello\n", r.Event(runner.OutputEvent{Channel: runner.Stdout, Text: "hello\n"}))
	assert.Equal(t, "oops\n", r.Event(runner.OutputEvent{Channel: runner.Stderr, Text: "oops\n"}))
}

func TestTerminal_Result(t *testing.T) {
	t.Parallel()

	r := NewTerminal(MonoTheme(), 80)

	ok := r.Result("Users", &outcome.Result{Succeeded: true, Duration: 2 * time.Second})
	assert.Equal(t, "+ Users completed 2.0s\n", ok)

	failed := r.Result("Users", &outcome.Result{ExitCode: 1, Guidance: "\n\nfix it\n"})
	assert.Contains(t, failed, "x Users failed (exit code 1)")
	assert.True(t, strings.HasSuffix(failed, "\nfix it\n"), failed)
}

func TestTerminal_History(t *testing.T) {
	t.Parallel()

	r := NewTerminal(MonoTheme(), 80)
	out := r.History([]HistoryRow{
		{When: time.Now(), Script: "Users", Succeeded: true, Duration: time.Second},
		{When: time.Now(), Script: "Cleanup", ExitCode: 3, Elevated: true},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "+ "))
	assert.True(t, strings.HasPrefix(lines[1], "x "))
	assert.True(t, strings.HasSuffix(lines[1], " A"))
	assert.Equal(t, "No runs recorded.\n", r.History(nil))
}

func TestTerminal_Status(t *testing.T) {
	t.Parallel()

	r := NewTerminal(MonoTheme(), 80)
	assert.Equal(t, "- Users  not installed (latest abc1234)\n", r.Status("Users", "", "abc1234", true))
	assert.Equal(t, "^ Users  1111111 -> 2222222\n", r.Status("Users", "1111111", "2222222", true))
	assert.Equal(t, "+ Users  up to date (2222222)\n", r.Status("Users", "2222222", "2222222", false))
}

func TestJSON_Result(t *testing.T) {
	t.Parallel()

	out := NewJSON().Result("Users", &outcome.Result{Succeeded: true, CombinedOutput: "done\n", RunID: "r1"})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Users", got["script"])
	assert.Equal(t, true, got["succeeded"])
	assert.Equal(t, "done\n", got["combined_output"])
	assert.Equal(t, "r1", got["run_id"])
}

func TestJSON_Scripts_When_Empty(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t, `{"scripts": []}`, NewJSON().Scripts(nil))
	assert.JSONEq(t, `{"runs": []}`, NewJSON().History(nil))
}
