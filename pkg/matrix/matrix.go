// Package matrix turns a parsed declaration into the concrete,
// ordered list of environments it denotes. Expansion is pure: the same
// configuration always produces the same environments in the same
// order.
package matrix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/provide-io/envmatrix/pkg/config"
	"github.com/provide-io/envmatrix/pkg/factor"
)

// versionPrefix introduces an interpreter version tag in an
// environment name, as in "py39".
const versionPrefix = "py"

// supportedVersions enumerates the interpreter version tags an
// environment name may carry.
var supportedVersions = map[string]bool{
	"27":  true,
	"35":  true,
	"36":  true,
	"37":  true,
	"38":  true,
	"39":  true,
	"310": true,
	"311": true,
	"312": true,
	"313": true,
}

// Environment is one fully resolved run context: a name, the extras to
// install alongside the base package, and the commands to execute.
// Version and Factors are empty for named override environments such
// as lint.
type Environment struct {
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Factors  []string `json:"factors,omitempty"`
	Extras   []string `json:"extras"`
	Commands []string `json:"commands"`
}

// HasExtra reports whether the environment's extras contain name.
func (e Environment) HasExtra(name string) bool {
	for _, extra := range e.Extras {
		if extra == name {
			return true
		}
	}
	return false
}

// Expand produces the full ordered environment list: every name the
// envlist denotes, in envlist order, followed by any [env:NAME]
// overrides not already named by the envlist, in declaration order.
func Expand(cfg *config.Config) ([]Environment, error) {
	names, err := factor.ExpandList(cfg.Envlist)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]config.Override, len(cfg.Overrides))
	for _, override := range cfg.Overrides {
		overrides[override.Name] = override
	}

	consumed := make(map[string]bool)
	envs := make([]Environment, 0, len(names)+len(cfg.Overrides))
	for _, name := range names {
		if override, ok := overrides[name]; ok {
			envs = append(envs, resolveOverride(cfg, override))
			consumed[name] = true
			continue
		}
		env, err := resolveMatrixEnv(cfg, name)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}

	for _, override := range cfg.Overrides {
		if !consumed[override.Name] {
			envs = append(envs, resolveOverride(cfg, override))
		}
	}
	return envs, nil
}

// resolveMatrixEnv builds an environment from a matrix name such as
// "py36-arduino": a version token followed by zero or more factors.
func resolveMatrixEnv(cfg *config.Config, name string) (Environment, error) {
	tokens := strings.Split(name, "-")

	version, ok := strings.CutPrefix(tokens[0], versionPrefix)
	if !ok || !supportedVersions[version] {
		return Environment{}, fmt.Errorf("%w: %q in environment %q", ErrUnknownVersion, tokens[0], name)
	}

	known := knownFactors(cfg.Defaults.Extras)
	factors := tokens[1:]
	for _, f := range factors {
		if !known[f] {
			return Environment{}, fmt.Errorf("%w: %q in environment %q", ErrUnknownFactor, f, name)
		}
	}

	return Environment{
		Name:     name,
		Version:  version,
		Factors:  factors,
		Extras:   resolveExtras(cfg.Defaults.Extras, factors),
		Commands: append([]string(nil), cfg.Defaults.Commands...),
	}, nil
}

// resolveOverride builds an environment from an [env:NAME] section,
// falling back to the [env] defaults for keys the override leaves out.
func resolveOverride(cfg *config.Config, override config.Override) Environment {
	rules := override.Extras
	if rules == nil {
		rules = cfg.Defaults.Extras
	}
	commands := override.Commands
	if commands == nil {
		commands = cfg.Defaults.Commands
	}

	return Environment{
		Name:     override.Name,
		Extras:   resolveExtras(rules, nil),
		Commands: append([]string(nil), commands...),
	}
}

// resolveExtras applies extras rules against the active factor set and
// returns the sorted, deduplicated result. Unconditional rules always
// apply; factored rules apply when their factor is active.
func resolveExtras(rules []config.ExtraRule, factors []string) []string {
	active := make(map[string]bool, len(factors))
	for _, f := range factors {
		active[f] = true
	}

	seen := make(map[string]bool)
	extras := []string{}
	for _, rule := range rules {
		if rule.Factor != "" && !active[rule.Factor] {
			continue
		}
		if !seen[rule.Extra] {
			seen[rule.Extra] = true
			extras = append(extras, rule.Extra)
		}
	}
	sort.Strings(extras)
	return extras
}

func knownFactors(rules []config.ExtraRule) map[string]bool {
	known := make(map[string]bool)
	for _, rule := range rules {
		if rule.Factor != "" {
			known[rule.Factor] = true
		}
	}
	return known
}

// Select filters envs down to the requested names, preserving the
// expanded order. Requesting a name outside the expansion is an error.
func Select(envs []Environment, names []string) ([]Environment, error) {
	byName := make(map[string]Environment, len(envs))
	for _, env := range envs {
		byName[env.Name] = env
	}

	selected := make([]Environment, 0, len(names))
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
		}
		requested[name] = true
	}
	for _, env := range envs {
		if requested[env.Name] {
			selected = append(selected, env)
		}
	}
	return selected, nil
}

// ResolveCI maps a short CI interpreter label such as "3.9" to its
// environment name prefix via the [ci] section.
func ResolveCI(cfg *config.Config, label string) (string, error) {
	for _, version := range cfg.CIVersions {
		if version.Label == label {
			return version.Prefix, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCIVersion, label)
}

// SelectCI returns the environments a CI interpreter label selects:
// those whose name is the mapped prefix or starts with the prefix
// followed by a factor separator.
func SelectCI(envs []Environment, cfg *config.Config, label string) ([]Environment, error) {
	prefix, err := ResolveCI(cfg, label)
	if err != nil {
		return nil, err
	}

	selected := []Environment{}
	for _, env := range envs {
		if env.Name == prefix || strings.HasPrefix(env.Name, prefix+"-") {
			selected = append(selected, env)
		}
	}
	return selected, nil
}
