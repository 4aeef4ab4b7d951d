// Package config is used to load the configuration file
package config

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/blacktop/reasm/pkg/pprint"
	"github.com/blacktop/reasm/pkg/syntax"
)

// Print holds the `print` block of the config file.
type Print struct {
	// Format overrides the format of the loaded module.
	Format string `mapstructure:"format" yaml:"format,omitempty"`

	// Syntax defaults per format (elf: intel, macho: att).
	Syntax string `mapstructure:"syntax" yaml:"syntax,omitempty"`

	// Targets are format/syntax pairs; when set, Format and Syntax are ignored.
	Targets []string `mapstructure:"targets" yaml:"targets,omitempty"`

	Debug         bool     `mapstructure:"debug" yaml:"debug,omitempty"`
	SkipFunctions []string `mapstructure:"skip-functions" yaml:"skip-functions,omitempty"`
	KeepFunctions []string `mapstructure:"keep-functions" yaml:"keep-functions,omitempty"`
}

// Config is the configuration struct
type Config struct {
	Print Print `mapstructure:"print" yaml:"print"`
}

func (c *Config) verify(reg *pprint.Registry) error {
	for _, t := range c.Print.Targets {
		target, err := pprint.ParseTarget(t)
		if err != nil {
			return err
		}
		if _, err := reg.Lookup(target); err != nil {
			return err
		}
	}
	if c.Print.Format != "" && !lo.Contains(reg.Formats(), c.Print.Format) {
		return errors.Errorf("unsupported format %q (supported: %v)", c.Print.Format, reg.Formats())
	}
	if both := lo.Intersect(c.Print.SkipFunctions, c.Print.KeepFunctions); len(both) > 0 {
		return errors.Errorf("functions both skipped and kept: %v", both)
	}
	return nil
}

// Load unmarshals and verifies the configuration held by v.
func Load(v *viper.Viper, reg *pprint.Registry) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "config: failed to unmarshal")
	}
	if err := c.verify(reg); err != nil {
		return nil, errors.Wrap(err, "config: failed to verify")
	}
	return &c, nil
}

// LoadConfig loads the configuration from the global viper instance.
func LoadConfig(reg *pprint.Registry) (*Config, error) {
	return Load(viper.GetViper(), reg)
}

// Resolve returns the targets to print a module of the given format with.
func (p *Print) Resolve(reg *pprint.Registry, format string) ([]pprint.Target, error) {
	if len(p.Targets) > 0 {
		targets := make([]pprint.Target, 0, len(p.Targets))
		for _, t := range lo.Uniq(p.Targets) {
			target, err := pprint.ParseTarget(t)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target)
		}
		return targets, nil
	}
	if p.Format != "" {
		format = p.Format
	}
	syn := p.Syntax
	if syn == "" {
		var ok bool
		if syn, ok = syntax.DefaultSyntax(format); !ok {
			return nil, errors.Wrapf(pprint.ErrUnknownTarget, "no default syntax for format %q", format)
		}
	}
	target := pprint.Target{Format: format, Syntax: syn}
	if _, err := reg.Lookup(target); err != nil {
		return nil, err
	}
	return []pprint.Target{target}, nil
}

// PrinterConfig builds the printer configuration for target.
func (p *Print) PrinterConfig(target pprint.Target) *pprint.Config {
	conf := pprint.NewConfig(target.Format, target.Syntax)
	conf.Debug = p.Debug
	for _, name := range p.SkipFunctions {
		conf.SkipFunction(name)
	}
	for _, name := range p.KeepFunctions {
		conf.KeepFunction(name)
	}
	return conf
}
