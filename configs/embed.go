package configs

import (
	_ "embed"
)

// Example is a commented config.yaml covering every setting
//
//go:embed config.example.yaml
var Example []byte
