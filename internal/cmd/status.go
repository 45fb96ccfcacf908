package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Status queries a running bridge and prints its state.
type Status struct {
	ClientFlags `embed:""`
	JSON        bool `help:"Print the raw JSON state"`
}

func (s *Status) Run(logger *slog.Logger) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	state, err := c.State()
	if err != nil {
		return err
	}
	if s.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	st := state.Status
	fmt.Printf("Connected:    %v\n", st.Connected)
	if st.Connected {
		fmt.Printf("Model:        %s\n", st.Model)
		fmt.Printf("Transport:    %s\n", st.Transport)
		fmt.Printf("Battery:      %d%%", st.BatteryPercent)
		if st.Charging {
			fmt.Print(" (charging)")
		}
		fmt.Println()
		if st.SimpleModeWarning {
			fmt.Println("Warning:      controller is stuck in simple report mode")
		}
	}
	fmt.Printf("Profile:      %s\n", st.ActiveProfile)
	fmt.Printf("Virtual pad:  %s\n", yesNo(st.BusDriverOK))
	fmt.Printf("Hider driver: %s\n", yesNo(st.HiderOK))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "available"
	}
	return "unavailable"
}
