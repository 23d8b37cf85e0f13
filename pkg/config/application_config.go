package config

// ApplicationConfiguration contains settings of the tool itself.
type ApplicationConfiguration struct {
	// LogLevel is one of zap levels (debug, info, warn, error), info by default.
	LogLevel string `yaml:"LogLevel"`
	// LogPath is a file to write logs into, stderr is used if empty.
	LogPath    string       `yaml:"LogPath"`
	Prometheus BasicService `yaml:"Prometheus"`
}
