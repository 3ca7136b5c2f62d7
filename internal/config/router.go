package config

type RouterConfig struct {
	Enabled bool   `env:"ROUTER_ENABLED" envDefault:"true"`
	Backend string `env:"ROUTER_BACKEND" envDefault:"rules"`
	// RulesJSON takes precedence over RulesPath.
	RulesJSON string `env:"ROUTER_RULES_JSON"`
	RulesPath string `env:"ROUTER_RULES_PATH"`
}
