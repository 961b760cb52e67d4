package fixtures

import (
	_ "embed"
)

// ConfigTemplate is the commented configuration written by `clfacade init`.
//
//go:embed config/config.yaml.template
var ConfigTemplate []byte
