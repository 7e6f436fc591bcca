package config

import "errors"

var (
	// Parse errors 📄
	ErrParse          = errors.New("❌ invalid matrix configuration")
	ErrUnknownSection = errors.New("❌ unknown configuration section")
	ErrUnknownKey     = errors.New("❌ unknown configuration key")
	ErrMissingEnvlist = errors.New("❌ missing envlist in [matrix] section")
	ErrEmptyExtra     = errors.New("❌ empty extra name in extras list")
)
