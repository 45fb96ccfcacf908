package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/Alia5/dsbridge/apiclient"
	"github.com/Alia5/dsbridge/internal/configpaths"

	"golang.org/x/term"
)

// ClientFlags is shared by the commands that talk to a running bridge.
type ClientFlags struct {
	Addr     string `help:"Control channel address" default:"127.0.0.1:3252" env:"DSBRIDGE_API_ADDR"`
	Password string `help:"Control channel password (defaults to the key file)" env:"DSBRIDGE_API_PASSWORD"`
}

// client resolves the password (flag, key file, interactive prompt) and
// builds an API client.
func (f *ClientFlags) client() (*apiclient.Client, error) {
	pwd := f.Password
	if pwd == "" {
		pwd = readKeyFile()
	}
	if pwd == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Control channel password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		pwd = strings.TrimSpace(string(raw))
	}
	if pwd == "" {
		return apiclient.New(f.Addr), nil
	}
	return apiclient.NewWithPassword(f.Addr, pwd), nil
}

func readKeyFile() string {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return ""
	}
	raw, err := os.ReadFile(path.Join(dir, keyFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
