package cmd

import (
	"github.com/spf13/pflag"
)

func addConfigFileFlag(fs *pflag.FlagSet, file *string) {
	fs.StringVarP(file, "config-file", "c", "", "set path of configuration file")
}

func addConfigOverrideFlag(fs *pflag.FlagSet, overrides *[]string) {
	fs.StringArrayVar(overrides, "set", []string{}, "override a config value on the command line as key=value (repeat the flag to set multiple values)")
}

func addBackendFlag(fs *pflag.FlagSet, backend *string) {
	fs.StringVarP(backend, "backend", "b", "auto", "tracing backend to use: auto, classic, or event_subscription")
}

func addOutputFormatFlag(fs *pflag.FlagSet, format *string) {
	fs.StringVarP(format, "format", "f", "pretty", "set output format: pretty or json")
}
