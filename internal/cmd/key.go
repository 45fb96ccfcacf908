package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/Alia5/dsbridge/internal/configpaths"
	"github.com/Alia5/dsbridge/internal/server/api/auth"
)

// Key prints or rotates the control channel password.
type Key struct {
	Rotate bool `help:"Generate a new password (a running bridge picks it up on restart)"`
}

func (k *Key) Run(logger *slog.Logger) error {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("failed to resolve config dir: %w", err)
	}
	keyFilePath := path.Join(dir, keyFileName)

	if k.Rotate {
		newPwd, err := auth.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate new password: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
		if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
			return fmt.Errorf("failed to write key file: %w", err)
		}
		fmt.Println(newPwd)
		return nil
	}

	pwd := readKeyFile()
	if pwd == "" {
		return fmt.Errorf("no key file at %s (start the bridge once or use --rotate)", keyFilePath)
	}
	fmt.Println(pwd)
	return nil
}
