package environment

import "strings"

// Environment names the deployment stage the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse normalizes s into a known environment. Short aliases are accepted;
// anything unrecognized is treated as development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) String() string { return string(e) }

func (e Environment) IsProduction() bool  { return e == Production }
func (e Environment) IsStaging() bool     { return e == Staging }
func (e Environment) IsDevelopment() bool { return e == Development }

// SecureCookies reports whether cookies must be restricted to HTTPS.
func (e Environment) SecureCookies() bool { return e != Development }

// Config identifies the running application.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Name string `env:"APP_NAME" envDefault:"storefront"`
}

// Environment returns the parsed APP_ENV value.
func (c Config) Environment() Environment { return Parse(c.Env) }
