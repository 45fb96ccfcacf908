package api

// ServerConfig represents the control channel configuration.
type ServerConfig struct {
	Addr string `help:"Control channel listen address" default:"127.0.0.1:3252" env:"DSBRIDGE_API_ADDR"`
	// Password authenticates clients. Filled from the key file at startup.
	Password string `kong:"-"`
}
