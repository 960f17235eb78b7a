package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagQuery    = flag.String("query", "", "Query string carrying navigation targets (url0=...&url1=...)")
	flagNavigate = flag.String("navigate", "", "Navigation mode: host, browser or log")
	flagListen   = flag.String("listen", "", "Host bridge listen address")
	flagNoHost   = flag.Bool("no-host", false, "Disable the host bridge")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
	flagBasePath = flag.String("base-path", "", "Directory or URL prefix for scene assets")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagQuery != "" {
		cfg.Navigation.Query = *flagQuery
	}
	if *flagNavigate != "" {
		cfg.Navigation.Mode = *flagNavigate
	}
	if *flagListen != "" {
		cfg.Host.Listen = *flagListen
	}
	if *flagNoHost {
		cfg.Host.Enabled = false
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagBasePath != "" {
		cfg.Scene.BasePath = *flagBasePath
	}
}
