// Package config loads the envmatrix declaration file: an INI file
// with a [matrix] envlist, [env] defaults, optional [env:NAME]
// overrides and a [ci] interpreter-version mapping.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultFile is the configuration file name looked up in the current
// directory when no explicit path is given.
const DefaultFile = "envmatrix.ini"

const (
	sectionMatrix    = "matrix"
	sectionEnv       = "env"
	sectionCI        = "ci"
	overridePrefix   = "env:"
	keyEnvlist       = "envlist"
	keyExtras        = "extras"
	keyCommands      = "commands"
	factorRuleMarker = ":"
)

// ExtraRule is one line of an extras list. A rule with an empty Factor
// applies unconditionally; otherwise the extra is added only to
// environments whose name carries that factor.
type ExtraRule struct {
	Factor string
	Extra  string
}

// EnvSettings holds the keys an [env] or [env:NAME] section may set.
// A nil slice means the key was absent, which for overrides falls back
// to the [env] defaults.
type EnvSettings struct {
	Extras   []ExtraRule
	Commands []string
}

// Override is an [env:NAME] section: a named environment declared
// outside the version matrix, such as lint or check-docs.
type Override struct {
	Name string
	EnvSettings
}

// CIVersion maps a short interpreter label used by CI ("3.9") to the
// environment name prefix it selects ("py39").
type CIVersion struct {
	Label  string
	Prefix string
}

// Config is the fully parsed declaration file. Slices preserve
// declaration order so downstream expansion stays deterministic.
type Config struct {
	Envlist    string
	Defaults   EnvSettings
	Overrides  []Override
	CIVersions []CIVersion
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	file, err := ini.LoadSources(loadOptions(), path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return fromFile(file)
}

// Parse parses in-memory configuration data.
func Parse(data []byte) (*Config, error) {
	file, err := ini.LoadSources(loadOptions(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return fromFile(file)
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		// Extras and commands are written one per indented line,
		// configparser style.
		AllowPythonMultilineValues: true,
		// Values like "make test && make lint" must survive verbatim.
		IgnoreInlineComment: true,
	}
}

func fromFile(file *ini.File) (*Config, error) {
	cfg := &Config{}

	for _, section := range file.Sections() {
		name := section.Name()
		switch {
		case name == ini.DefaultSection:
			if len(section.Keys()) > 0 {
				return nil, fmt.Errorf("%w: key %q outside any section",
					ErrParse, section.KeyStrings()[0])
			}
		case name == sectionMatrix:
			if err := checkKeys(section, keyEnvlist); err != nil {
				return nil, err
			}
			cfg.Envlist = section.Key(keyEnvlist).String()
		case name == sectionEnv:
			settings, err := parseEnvSettings(section)
			if err != nil {
				return nil, err
			}
			cfg.Defaults = settings
		case strings.HasPrefix(name, overridePrefix):
			envName := strings.TrimPrefix(name, overridePrefix)
			if envName == "" {
				return nil, fmt.Errorf("%w: empty override name in [%s]", ErrParse, name)
			}
			settings, err := parseEnvSettings(section)
			if err != nil {
				return nil, err
			}
			cfg.Overrides = append(cfg.Overrides, Override{Name: envName, EnvSettings: settings})
		case name == sectionCI:
			for _, key := range section.Keys() {
				cfg.CIVersions = append(cfg.CIVersions, CIVersion{
					Label:  key.Name(),
					Prefix: strings.TrimSpace(key.String()),
				})
			}
		default:
			return nil, fmt.Errorf("%w: [%s]", ErrUnknownSection, name)
		}
	}

	if strings.TrimSpace(cfg.Envlist) == "" {
		return nil, ErrMissingEnvlist
	}
	return cfg, nil
}

func parseEnvSettings(section *ini.Section) (EnvSettings, error) {
	if err := checkKeys(section, keyExtras, keyCommands); err != nil {
		return EnvSettings{}, err
	}

	var settings EnvSettings
	if section.HasKey(keyExtras) {
		rules, err := parseExtras(section.Key(keyExtras).String())
		if err != nil {
			return EnvSettings{}, fmt.Errorf("[%s] %s: %w", section.Name(), keyExtras, err)
		}
		settings.Extras = rules
	}
	if section.HasKey(keyCommands) {
		settings.Commands = parseCommands(section.Key(keyCommands).String())
	}
	return settings, nil
}

// parseExtras splits an extras value on newlines and commas. Each
// entry is either a bare extra name or "factor: extra".
func parseExtras(value string) ([]ExtraRule, error) {
	rules := []ExtraRule{}
	for _, entry := range strings.FieldsFunc(value, func(r rune) bool {
		return r == '\n' || r == ','
	}) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		factor, extra, conditional := strings.Cut(entry, factorRuleMarker)
		if !conditional {
			rules = append(rules, ExtraRule{Extra: entry})
			continue
		}

		factor = strings.TrimSpace(factor)
		extra = strings.TrimSpace(extra)
		if factor == "" || extra == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyExtra, entry)
		}
		rules = append(rules, ExtraRule{Factor: factor, Extra: extra})
	}
	return rules, nil
}

// parseCommands splits a commands value into one command string per
// non-empty line. Lines keep their spacing; shell splitting happens at
// execution time.
func parseCommands(value string) []string {
	commands := []string{}
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			commands = append(commands, line)
		}
	}
	return commands
}

func checkKeys(section *ini.Section, allowed ...string) error {
	for _, key := range section.KeyStrings() {
		known := false
		for _, name := range allowed {
			if key == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %q in [%s]", ErrUnknownKey, key, section.Name())
		}
	}
	return nil
}
