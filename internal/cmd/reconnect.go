package cmd

import (
	"fmt"
	"log/slog"
)

// Reconnect asks a running bridge to drop and reopen the controller.
type Reconnect struct {
	ClientFlags `embed:""`
}

func (r *Reconnect) Run(logger *slog.Logger) error {
	c, err := r.client()
	if err != nil {
		return err
	}
	if _, err := c.Disconnect(); err != nil {
		return err
	}
	fmt.Println("reconnect requested")
	return nil
}
