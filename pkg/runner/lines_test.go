package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineAssembler_HoldsPartialLineUntilFlush(t *testing.T) {
	t.Parallel()

	var a lineAssembler
	assert.Equal(t, "", a.Feed([]byte("abc")))
	assert.Equal(t, "abcdef\n", a.Feed([]byte("def\ngh")))
	assert.Equal(t, "", a.Feed([]byte("i")))
	assert.Equal(t, "ghi", a.Flush())
	assert.Equal(t, "", a.Flush())
}

func TestLineAssembler_DoesNotSplitRunes(t *testing.T) {
	t.Parallel()

	raw := []byte("größe\n")
	var a lineAssembler
	var got strings.Builder
	for i := range raw {
		got.WriteString(a.Feed(raw[i : i+1]))
	}
	got.WriteString(a.Flush())
	assert.Equal(t, "größe\n", got.String())
}

func TestLineAssembler_StripsBOMOnlyFromFirstBlock(t *testing.T) {
	t.Parallel()

	a := lineAssembler{stripBOM: true}
	assert.Equal(t, "first\n", a.Feed([]byte("\ufefffirst\n")))
	assert.Equal(t, "\ufeffsecond\n", a.Feed([]byte("\ufeffsecond\n")))
}

func TestReadLines_DeliversWholeLinesFromSmallReads(t *testing.T) {
	t.Parallel()

	var blocks []string
	err := readLines(iotest.OneByteReader(strings.NewReader("one\ntwo\nthree")), func(s string) {
		blocks = append(blocks, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one\n", "two\n", "three"}, blocks)
}

func TestReadLines_ReturnsReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var got strings.Builder
	err := readLines(iotest.ErrReader(boom), func(s string) { got.WriteString(s) })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got.String())
}

func TestTail_MissingFileReadsEmpty(t *testing.T) {
	t.Parallel()

	tail := Tail{Path: filepath.Join(t.TempDir(), "absent.txt")}
	b, err := tail.ReadNew()
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Zero(t, tail.Offset())
}

func TestTail_NeverRereadsBytes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	tail := Tail{Path: path}

	appendFile(t, path, "abc")
	b, err := tail.ReadNew()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))

	b, err = tail.ReadNew()
	require.NoError(t, err)
	assert.Empty(t, b)

	appendFile(t, path, "def")
	b, err = tail.ReadNew()
	require.NoError(t, err)
	assert.Equal(t, "def", string(b))
	assert.Equal(t, int64(6), tail.Offset())
}

// Every byte written to a capture file reaches the sink exactly once, in
// order, whatever the burst boundaries relative to the poll ticks.
func TestFileStream_DeliversEveryByteExactlyOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scriptdeck-output-0000000000000000.txt")
	bursts := []string{
		"\ufeff",
		"Installing package A\nInstall",
		"ing package B\n",
		"",
		"Configuring",
		" services\nDone: 3 items\n",
		"Summary written",
	}

	var got strings.Builder
	log, _ := test.NewNullLogger()
	s := newFileStream(path, func(text string) { got.WriteString(text) }, log)

	s.Poll() // before the file exists
	var want strings.Builder
	for _, b := range bursts {
		appendFile(t, path, b)
		want.WriteString(b)
		s.Poll()
	}
	s.Poll()
	s.Flush()

	assert.Equal(t, strings.TrimPrefix(want.String(), "\ufeff"), got.String())
	assert.Equal(t, got.String(), s.Raw())
	assert.Equal(t, int64(len(want.String())), s.tail.Offset())
}

// Table output keeps its column indentation and blank separator lines when
// the rows land in different polls.
func TestFileStream_KeepsLayoutAcrossPolls(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scriptdeck-output-0000000000000000.txt")
	polls := []string{
		"   Id Name\n   -- ----\n",
		"    1 svc\n\n",
		"   42 other\n",
	}

	rec := newRecorder()
	em := newEmitter(rec.OnOutput)
	log, _ := test.NewNullLogger()
	s := newFileStream(path, em.Stdout, log)
	for _, p := range polls {
		appendFile(t, path, p)
		s.Poll()
	}
	s.Flush()

	want := strings.Join(polls, "")
	assert.Equal(t, want, rec.Text(Stdout))
	assert.Equal(t, want, em.Output())
	assert.Len(t, rec.Events(), len(polls))
}

func TestFileStream_LogsUnreadableFileAtDebug(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	// A directory opens but cannot be read as a file.
	s := newFileStream(dir, func(string) {}, log)
	s.Poll()

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
