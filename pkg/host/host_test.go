package host

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/armctl/pkg/robot"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"A45", Command{Kind: Servo, Channel: robot.Base, Value: 45}},
		{"C90", Command{Kind: Servo, Channel: robot.Elbow, Value: 90}},
		{"F0", Command{Kind: Servo, Channel: robot.Gripper, Value: 0}},
		{"B250", Command{Kind: Servo, Channel: robot.Shoulder, Value: 250}},
		{"D-5", Command{Kind: Servo, Channel: robot.Wrist, Value: -5}},
		{"G255", Command{Kind: Red, Value: 255}},
		{"H10", Command{Kind: Green, Value: 10}},
		{"I0", Command{Kind: Blue, Value: 0}},
		{"J", Command{Kind: LightApply}},
		{"J1", Command{Kind: LightApply, Value: 1}},
		{"Z1", Command{Kind: Tone, Value: 1}},
		{"Z0", Command{Kind: Tone, Value: 0}},
		{" A7 ", Command{Kind: Servo, Channel: robot.Base, Value: 7}},
	}
	for _, tt := range tests {
		got, err := ParseRecord(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRecord_Malformed(t *testing.T) {
	for _, in := range []string{"", "A", "Ax", "K10", "a45", "Z2", "45", "A4 5", "G"} {
		_, err := ParseRecord(in)
		assert.ErrorIs(t, err, ErrMalformed, "%q", in)
	}
}

func TestParse(t *testing.T) {
	cmds := Parse("A45$C90$")
	assert.Equal(t, []Command{
		{Kind: Servo, Channel: robot.Base, Value: 45},
		{Kind: Servo, Channel: robot.Elbow, Value: 90},
	}, cmds)

	assert.Len(t, Parse("A45$Q1$B10$"), 2, "malformed record in the middle is dropped")
	assert.Empty(t, Parse("A45"), "unterminated record is dropped")
	assert.Empty(t, Parse(""))
	assert.Len(t, Parse("A45$B1"), 1)
}

func TestReader_Run(t *testing.T) {
	stream := strings.NewReader("A45$\r\ngarbage\nC90$Z1$\n")
	out := make(chan Command, 10)

	err := NewReader(stream, zerolog.Nop()).Run(context.Background(), out)
	require.NoError(t, err)
	close(out)

	var got []Command
	for c := range out {
		got = append(got, c)
	}
	assert.Equal(t, []Command{
		{Kind: Servo, Channel: robot.Base, Value: 45},
		{Kind: Servo, Channel: robot.Elbow, Value: 90},
		{Kind: Tone, Value: 1},
	}, got)
}

func TestReader_OverlongLineDropped(t *testing.T) {
	junk := strings.Repeat("x", 70*1024)
	stream := strings.NewReader(junk + "\nA45$\n" + strings.Repeat("B", MaxLine+1) + "\nC90$")
	out := make(chan Command, 10)

	err := NewReader(stream, zerolog.Nop()).Run(context.Background(), out)
	require.NoError(t, err)
	close(out)

	var got []Command
	for c := range out {
		got = append(got, c)
	}
	assert.Equal(t, []Command{
		{Kind: Servo, Channel: robot.Base, Value: 45},
		{Kind: Servo, Channel: robot.Elbow, Value: 90},
	}, got)
}

func TestReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan Command) // unbuffered, nobody reading

	err := NewReader(strings.NewReader("A1$\n"), zerolog.Nop()).Run(ctx, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "servo[elbow]=90", Command{Kind: Servo, Channel: robot.Elbow, Value: 90}.String())
	assert.Equal(t, "tone=1", Command{Kind: Tone, Value: 1}.String())
}
