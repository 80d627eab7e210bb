// Package host parses the host command stream.
//
// Records have the form <letter><integer>$, several may share a line:
//
//	A..F  servo channel 0-5 target angle
//	G H I red, green, blue component of the status light
//	J     apply the light color
//	Z1 Z0 start or stop the tone
package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gwillem/armctl/pkg/robot"
)

// Terminator ends every record.
const Terminator = '$'

// Kind is the type of a host command.
type Kind int

const (
	Servo Kind = iota
	Red
	Green
	Blue
	LightApply
	Tone
)

func (k Kind) String() string {
	switch k {
	case Servo:
		return "servo"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case LightApply:
		return "light"
	case Tone:
		return "tone"
	}
	return "unknown"
}

// Command is one parsed host record.
type Command struct {
	Kind    Kind
	Channel robot.Channel // Servo only
	Value   int
}

func (c Command) String() string {
	if c.Kind == Servo {
		return fmt.Sprintf("%s[%s]=%d", c.Kind, c.Channel, c.Value)
	}
	return fmt.Sprintf("%s=%d", c.Kind, c.Value)
}

// ErrMalformed is returned for records that do not parse.
var ErrMalformed = errors.New("malformed host command")

// ParseRecord parses a single record without its terminator.
func ParseRecord(rec string) (Command, error) {
	rec = strings.TrimSpace(rec)
	if rec == "" {
		return Command{}, ErrMalformed
	}
	letter, digits := rec[0], rec[1:]

	if letter == 'J' && digits == "" {
		return Command{Kind: LightApply}, nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, rec)
	}

	switch {
	case letter >= 'A' && letter <= 'F':
		return Command{Kind: Servo, Channel: robot.Channel(letter - 'A'), Value: v}, nil
	case letter == 'G':
		return Command{Kind: Red, Value: v}, nil
	case letter == 'H':
		return Command{Kind: Green, Value: v}, nil
	case letter == 'I':
		return Command{Kind: Blue, Value: v}, nil
	case letter == 'J':
		return Command{Kind: LightApply, Value: v}, nil
	case letter == 'Z' && (v == 0 || v == 1):
		return Command{Kind: Tone, Value: v}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrMalformed, rec)
}

// Parse returns the well-formed records of a line. Malformed records and a
// trailing unterminated fragment are dropped.
func Parse(line string) []Command {
	parts := strings.Split(line, string(Terminator))
	var cmds []Command
	for _, p := range parts[:len(parts)-1] {
		cmd, err := ParseRecord(p)
		if err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
