package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gvcf-reduce configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".yaml.",
		Example: `  gvcf-reduce config                                  # show all config
  gvcf-reduce config set min-depth 20                 # raise the mask threshold
  gvcf-reduce config get lower-ambiguity-frequency    # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow()
		},
	}

	cmd.AddCommand(a.newConfigSetCmd())
	cmd.AddCommand(a.newConfigGetCmd())

	return cmd
}

func (a *app) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(args[0], args[1])
		},
	}
}

func (a *app) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigGet(args[0])
		},
	}
}

func (a *app) runConfigShow() error {
	out, err := yaml.Marshal(a.v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(a.stdout, string(out))
	return nil
}

// settableKeys lists the keys config set accepts.
var settableKeys = []string{keyMinDepth, keyLowerAF, keyUpperAF, keyDB, keyVerbose}

func (a *app) runConfigSet(key, value string) error {
	if !slices.Contains(settableKeys, key) {
		return usageError{fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(settableKeys, ", "))}
	}
	if err := checkConfigValue(key, value); err != nil {
		return usageError{err}
	}

	// Store numbers and booleans with their type so the YAML stays typed.
	switch value {
	case "true", "yes", "on":
		a.v.Set(key, true)
	case "false", "no", "off":
		a.v.Set(key, false)
	default:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			a.v.Set(key, i)
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			a.v.Set(key, f)
		} else {
			a.v.Set(key, value)
		}
	}

	cfgFile, err := a.configPath()
	if err != nil {
		return err
	}

	if err := a.v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(a.stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (a *app) runConfigGet(key string) error {
	val := a.v.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(a.stdout, val)
	return nil
}

// checkConfigValue rejects values that the key's consumer cannot parse.
func checkConfigValue(key, value string) error {
	var err error
	switch key {
	case keyMinDepth:
		_, err = strconv.ParseInt(value, 10, 64)
	case keyLowerAF, keyUpperAF:
		_, err = strconv.ParseFloat(value, 64)
	case keyVerbose:
		if !slices.Contains([]string{"true", "yes", "on", "false", "no", "off"}, value) {
			err = strconv.ErrSyntax
		}
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s", value, key)
	}
	return nil
}
