// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BALANCEBOARD"

// loadConfig fills flags that were not given on the command line from the
// environment and the optional config file.
func loadConfig(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return pkgerrors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		if setErr := f.Value.Set(v.GetString(f.Name)); setErr != nil {
			err = fmt.Errorf("invalid value for %s: %v", f.Name, setErr)
		}
	})
	return err
}
