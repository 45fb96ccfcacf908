package cmd

import (
	"fmt"
	"log/slog"
)

// Profiles manipulates the stored profiles of a running bridge.
type Profiles struct {
	ClientFlags `embed:""`
	Save        string `help:"Save the live configuration under this name" xor:"action"`
	Load        string `help:"Activate the named profile" xor:"action"`
	Delete      string `help:"Delete the named profile" xor:"action"`
}

func (p *Profiles) Run(logger *slog.Logger) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	switch {
	case p.Save != "":
		resp, err := c.ProfileSave(p.Save)
		if err != nil {
			return err
		}
		fmt.Printf("saved %q\n", resp.Name)
	case p.Load != "":
		resp, err := c.ProfileLoad(p.Load)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %q\n", resp.Name)
	case p.Delete != "":
		resp, err := c.ProfileDelete(p.Delete)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %q\n", resp.Name)
	default:
		list, err := c.ProfileList()
		if err != nil {
			return err
		}
		for _, name := range list.Profiles {
			marker := " "
			if name == list.Active {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
	}
	return nil
}
