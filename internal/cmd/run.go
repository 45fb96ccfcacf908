package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/dsbridge/internal/configpaths"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/hider"
	"github.com/Alia5/dsbridge/internal/log"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/Alia5/dsbridge/internal/server/api"
	"github.com/Alia5/dsbridge/internal/server/api/auth"
	"github.com/Alia5/dsbridge/internal/server/api/handler"
	"github.com/Alia5/dsbridge/internal/util"
)

const keyFileName = "dsbridge.key.txt"

// Run is the main bridge command: supervises the controller and serves the
// control channel.
type Run struct {
	ApiServerConfig api.ServerConfig `embed:"" prefix:"api."`
	ConfigDir       string           `help:"Configuration directory override" env:"DSBRIDGE_CONFIG_DIR"`
	HiderCLI        string           `help:"Path to the HidHide CLI executable" env:"DSBRIDGE_HIDHIDE_CLI"`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Start(ctx, logger, rawLogger)
}

func (r *Run) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	configDir := r.ConfigDir
	if configDir == "" {
		dir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve config dir: %w", err)
		}
		configDir = dir
	}

	logger.Info("Starting dsbridge", "config", configDir)

	keyFilePath := path.Join(configDir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		r.ApiServerConfig.Password = strings.TrimSpace(string(pwd))
	} else {
		newPwd, err := auth.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate new API password: %w", err)
		}
		if err := os.MkdirAll(configDir, 0o700); err != nil {
			return fmt.Errorf("failed to create config dir for key file: %w", err)
		}
		if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
			return fmt.Errorf("failed to write new API password to file: %w", err)
		}
		r.ApiServerConfig.Password = newPwd
		logger.Info("Generated control channel password", "path", keyFilePath)
		logger.Info("-------------------------------------")
		logger.Info("Your dsbridge control channel password is:")
		logger.Info("-------------------------------------")
		logger.Info(newPwd)
		logger.Info("-------------------------------------")
		logger.Info("You can change this password at any time by editing the file")
	}

	store, err := profile.NewStore(configDir, logger)
	if err != nil {
		return err
	}
	h := hider.New(r.HiderCLI, logger)
	eng := engine.New(store, h, logger, rawLogger)

	if r.ApiServerConfig.Addr == "" {
		logger.Error("API server address must be set (default 127.0.0.1:3252).")
		return fmt.Errorf("API server address must be set (default 127.0.0.1:3252).")
	}

	engCtx, engCancel := context.WithCancel(ctx)
	defer engCancel()
	engErrCh := make(chan error, 1)
	go func() {
		engErrCh <- eng.Run(engCtx)
	}()

	apiSrv := api.New(eng, r.ApiServerConfig.Addr, r.ApiServerConfig, logger)
	rt := apiSrv.Router()
	rt.Register("ping", handler.Ping())
	rt.Register("state", handler.State(eng))
	rt.Register("mappings/update", handler.MappingsUpdate(eng))
	rt.Register("set/rgb", handler.SetRGB(eng))
	rt.Register("set/pled-brightness", handler.SetPledBrightness(eng))
	rt.Register("set/battery-led", handler.SetBatteryLED(eng))
	rt.Register("set/deadzones", handler.SetDeadzones(eng))
	rt.Register("set/mouse-sens", handler.SetMouseSens(eng))
	rt.Register("set/touchpad-sens", handler.SetTouchpadSens(eng))
	rt.Register("set/trigger/{side}", handler.SetTrigger(eng))
	rt.Register("set/hide-controller", handler.SetHideController(eng))
	rt.Register("profile/list", handler.ProfileList(eng))
	rt.Register("profile/save/{name}", handler.ProfileSave(eng))
	rt.Register("profile/load/{name}", handler.ProfileLoad(eng))
	rt.Register("profile/delete/{name}", handler.ProfileDelete(eng))
	rt.Register("disconnect", handler.Disconnect(eng))
	rt.Register("drivers/refresh", handler.DriversRefresh(eng))
	rt.RegisterStream("events", handler.Events(eng))

	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		engCancel()
		<-engErrCh
		if util.IsRunFromGUI() {
			fmt.Println("Press any key to exit...")
			var b []byte = make([]byte, 1)
			_, _ = os.Stdin.Read(b)
		}
		return err
	}

	if util.IsRunFromGUI() {
		go (func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		})()
	}

	select {
	case <-ctx.Done():
		apiSrv.Close()
		engCancel()
		<-engErrCh
		return nil
	case err := <-engErrCh:
		apiSrv.Close()
		return err
	}
}
