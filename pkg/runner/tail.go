package runner

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tail reads a growing file from a cursor. Each byte is returned exactly once.
type Tail struct {
	Path   string
	offset int64
}

// ReadNew returns the bytes written since the previous call. A file that does
// not exist yet reads as empty. On a read error the bytes read so far are
// still returned and the cursor covers exactly those.
func (t *Tail) ReadNew() ([]byte, error) {
	f, err := os.Open(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(f)
	t.offset += int64(len(b))
	return b, err
}

// Offset is the number of bytes consumed so far.
func (t *Tail) Offset() int64 { return t.offset }

// fileStream tails one capture file into a sink, line by line.
type fileStream struct {
	tail  Tail
	lines lineAssembler
	raw   strings.Builder
	sink  func(string)
	log   logrus.FieldLogger
}

func newFileStream(path string, sink func(string), log logrus.FieldLogger) *fileStream {
	return &fileStream{
		tail:  Tail{Path: path},
		lines: lineAssembler{stripBOM: true},
		sink:  sink,
		log:   log,
	}
}

// Poll delivers whole lines written since the last poll. Read errors are
// treated as transient; the next poll retries from the same cursor.
func (s *fileStream) Poll() {
	b, err := s.tail.ReadNew()
	if err != nil {
		s.log.WithError(err).WithField("path", s.tail.Path).Debug("capture file not readable yet")
	}
	s.deliver(s.lines.Feed(b))
}

// Flush delivers the final partial line.
func (s *fileStream) Flush() {
	s.deliver(s.lines.Flush())
}

// Raw is every delivered byte before sanitizing.
func (s *fileStream) Raw() string { return s.raw.String() }

func (s *fileStream) deliver(text string) {
	if text == "" {
		return
	}
	s.raw.WriteString(text)
	s.sink(text)
}
