package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	ServerURL string `envconfig:"CHATCTL_SERVER_URL" default:"http://localhost:8080"`
	// CHATCTL_TOKEN authenticates HTTP calls, see "chatctl login"
	Token string `envconfig:"CHATCTL_TOKEN"`
	// CHATCTL_USER_ID is the identity announced by "chatctl listen" when the server trusts the query parameter
	UserID  string `envconfig:"CHATCTL_USER_ID"`
	Colours bool   `envconfig:"CHATCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
