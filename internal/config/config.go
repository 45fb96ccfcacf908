// Package config defines the root command-line interface.
package config

import (
	"github.com/Alia5/dsbridge/internal/cmd"
)

// Log holds the logging flags shared by all commands.
type Log struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)" default:"info" env:"DSBRIDGE_LOG_LEVEL"`
	File    string `help:"Log file path (console output when empty)" env:"DSBRIDGE_LOG_FILE"`
	RawFile string `help:"Raw HID report log file path" env:"DSBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root Kong command tree.
type CLI struct {
	Log    Log    `embed:"" prefix:"log."`
	Config string `help:"Path to a configuration file" type:"path" env:"DSBRIDGE_CONFIG"`

	Run       cmd.Run           `cmd:"" help:"Run the bridge: supervise the controller and serve the control channel"`
	Status    cmd.Status        `cmd:"" help:"Show the state of a running bridge"`
	Profiles  cmd.Profiles      `cmd:"" help:"List, save, load or delete profiles on a running bridge"`
	Reconnect cmd.Reconnect     `cmd:"" help:"Force a controller reconnect on a running bridge"`
	Key       cmd.Key           `cmd:"" help:"Print or rotate the control channel password"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities"`
}
