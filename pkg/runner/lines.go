package runner

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
)

const readChunkSize = 4096

// lineAssembler turns arbitrary byte blocks into whole-line text. Bytes after
// the last newline are held until more data arrives or Flush is called, so a
// line or a UTF-8 sequence is never split across two blocks.
type lineAssembler struct {
	pending []byte
	// stripBOM drops a UTF-8 byte order mark from the first block.
	stripBOM bool
	started  bool
}

// Feed appends p and returns every complete line now available.
func (a *lineAssembler) Feed(p []byte) string {
	a.pending = append(a.pending, p...)
	i := bytes.LastIndexByte(a.pending, '\n')
	if i < 0 {
		return ""
	}
	text := a.decode(a.pending[:i+1])
	n := copy(a.pending, a.pending[i+1:])
	a.pending = a.pending[:n]
	return text
}

// Flush returns the held partial line, if any.
func (a *lineAssembler) Flush() string {
	if len(a.pending) == 0 {
		return ""
	}
	text := a.decode(a.pending)
	a.pending = a.pending[:0]
	return text
}

func (a *lineAssembler) decode(b []byte) string {
	first := !a.started
	a.started = true
	if first && a.stripBOM {
		if out, err := unicode.UTF8BOM.NewDecoder().Bytes(b); err == nil {
			return string(out)
		}
	}
	return string(b)
}

// readLines reads r to EOF in fixed-size chunks and hands each assembled
// block to sink. The trailing partial line is delivered last.
func readLines(r io.Reader, sink func(string)) error {
	var lines lineAssembler
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if text := lines.Feed(buf[:n]); text != "" {
				sink(text)
			}
		}
		if err != nil {
			if text := lines.Flush(); text != "" {
				sink(text)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
