package config

import "errors"

var (
	ErrParsingConfig = errors.New("config.parse_failed")
	ErrEnvFile       = errors.New("config.env_file")
	ErrNilPointer    = errors.New("config.nil_pointer")
)
