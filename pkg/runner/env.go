package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/envmatrix/pkg/matrix"
)

// commandEnv assembles the environment passed to spawned commands: the
// parent environment plus the variables describing the environment
// being run, so make targets can condition on them.
func commandEnv(env matrix.Environment) []string {
	environ := os.Environ()
	environ = append(environ, fmt.Sprintf("ENVMATRIX_ENV_NAME=%s", env.Name))
	environ = append(environ, fmt.Sprintf("ENVMATRIX_EXTRAS=%s", strings.Join(env.Extras, ",")))
	if env.Version != "" {
		environ = append(environ, fmt.Sprintf("ENVMATRIX_VERSION=%s", env.Version))
	}
	if len(env.Factors) > 0 {
		environ = append(environ, fmt.Sprintf("ENVMATRIX_FACTORS=%s", strings.Join(env.Factors, ",")))
	}
	return environ
}

// logEnvironmentTrace logs environment variables at trace level, redacting sensitive values.
func logEnvironmentTrace(environ []string, logger hclog.Logger) {
	if !logger.IsTrace() {
		return
	}

	logger.Trace("🌍 Environment variables being passed to commands:")
	for _, entry := range environ {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) == 2 {
			value := parts[1]
			if isSensitiveKey(parts[0]) {
				value = "***"
			}
			logger.Trace("  →", "key", parts[0], "value", value)
		}
	}
}

// isSensitiveKey checks if an environment variable key is sensitive and should be redacted in logs.
func isSensitiveKey(key string) bool {
	sensitiveKeys := map[string]bool{
		"SSH_AUTH_SOCK":         true,
		"AWS_SECRET_ACCESS_KEY": true,
		"GITHUB_TOKEN":          true,
		"OPENAI_API_KEY":        true,
		"PASSWORD":              true,
	}
	return sensitiveKeys[key]
}
