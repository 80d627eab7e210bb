package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"armctl.json" description:"Configuration file"`

	Setup   SetupCommand   `command:"setup" description:"Choose the servo driver and ports, calibrate bus servos"`
	Run     RunCommand     `command:"run" description:"Run the control loop with a live view"`
	Actions ActionsCommand `command:"actions" description:"Show, clear or export the stored action group"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armctl - six-channel robot arm controller"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
