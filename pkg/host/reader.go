package host

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// MaxLine is the longest host line accepted. Longer lines are dropped up to
// the next newline.
const MaxLine = 1024

// Reader turns a byte stream (usually a serial port) into commands.
type Reader struct {
	r   io.Reader
	log zerolog.Logger
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, log zerolog.Logger) *Reader {
	return &Reader{r: r, log: log}
}

// Run reads lines until the stream ends or ctx is done, sending every
// well-formed command to out. It returns nil at end of stream.
func (r *Reader) Run(ctx context.Context, out chan<- Command) error {
	lines := &lineSplitter{max: MaxLine, log: r.log}
	sc := bufio.NewScanner(r.r)
	sc.Buffer(make([]byte, 0, 256), 2*MaxLine)
	sc.Split(lines.split)
	for sc.Scan() {
		line := sc.Text()
		cmds := Parse(line)
		if len(cmds) == 0 && line != "" {
			r.log.Debug().Str("line", line).Msg("host line ignored")
		}
		for _, cmd := range cmds {
			select {
			case out <- cmd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read host stream: %w", err)
	}
	return nil
}

// lineSplitter is a bufio.SplitFunc like bufio.ScanLines that discards
// lines longer than max instead of failing the scan.
type lineSplitter struct {
	max      int
	skipping bool
	log      zerolog.Logger
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	i := bytes.IndexByte(data, '\n')
	if s.skipping {
		if i < 0 {
			return len(data), nil, nil
		}
		s.skipping = false
		return i + 1, nil, nil
	}
	switch {
	case i > s.max, i < 0 && len(data) > s.max:
		s.log.Warn().Int("max", s.max).Msg("host line too long, dropped")
		if i >= 0 {
			return i + 1, nil, nil
		}
		s.skipping = true
		return len(data), nil, nil
	case i >= 0:
		return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
	case atEOF && len(data) > 0:
		return len(data), bytes.TrimSuffix(data, []byte{'\r'}), nil
	}
	return 0, nil, nil
}
