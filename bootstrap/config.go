package bootstrap

import (
	"github.com/skillsenselab/svckit/config"
)

// Config is the interface constraint for application configuration
// types. Any struct that embeds config.ServiceConfig automatically
// satisfies it via promoted methods.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Registry registry.Config `yaml:"registry" mapstructure:"registry"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
