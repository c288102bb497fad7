// Package config loads the configuration of a playback process.
//
// Values are resolved from config.yml, a .env file, environment variables
// and command-line flags, in increasing order of precedence, through Viper.
// Without an explicit file, config.yml is looked up in the working
// directory, cmd/<service> and the user config directory.
//
//	cfg := config.Default()
//	if err := config.LoadConfig("mediaplay", &cfg, config.WithFlags(flags)); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// Every key of the target struct is bound to an environment variable
// prefixed with the service name, so MEDIAPLAY_PLAYBACK_SEEK_THRESHOLD=5s
// sets playback.seek.threshold.
package config
