package config

import liberr "github.com/sabouaram/p2ptracker/errors"

const (
	// ErrorValidate wraps one or more struct-tag validation failures.
	ErrorValidate liberr.CodeError = iota + liberr.MinPkgConfig
	// ErrorLoad is returned when viper cannot read the config file/env/flags.
	ErrorLoad
)

func init() {
	liberr.RegisterIdFctMessage(ErrorValidate, getMessage)
	liberr.RegisterIdFctMessage(ErrorLoad, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorValidate:
		return "config validation failed"
	case ErrorLoad:
		return "config could not be loaded"
	}

	return ""
}
