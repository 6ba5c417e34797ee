package dispatcher

import (
	"errors"
	"sort"
	"time"

	"github.com/tmoosting/tactical-tangle/internal/util"
)

// ErrEmptyLine is returned by ParseLine for blank and comment lines.
var ErrEmptyLine = errors.New("empty command line")

// ParseLine turns `:CMD: arg1 "arg two"` into an Event. Lines starting
// with # are comments.
func ParseLine(line string, now time.Time) (Event, error) {
	tokens := util.SplitArgs(line)
	if len(tokens) == 0 || len(tokens[0]) > 0 && tokens[0][0] == '#' {
		return Event{}, ErrEmptyLine
	}
	return Event{Command: tokens[0], Args: tokens[1:], Timestamp: now}, nil
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DispatchLine parses line and routes it.
func (d *Dispatcher) DispatchLine(line string) (any, error) {
	e, err := ParseLine(line, time.Now())
	if err != nil {
		return nil, err
	}
	return d.Dispatch(e)
}
