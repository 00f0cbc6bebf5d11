package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands ${VAR} references in s from the environment.
//
// Unlike os.ExpandEnv, a reference to an unset variable is an error rather
// than an empty substitution; a config value silently collapsing to "" is
// exactly the failure mode this exists to prevent. `$$` escapes a literal
// dollar sign.
func ExpandEnvStrict(s string) (string, error) {
	const escapedDollar = "\x00toolgate-dollar\x00"
	s = strings.ReplaceAll(s, "$$", escapedDollar)

	var missing []string
	seen := make(map[string]bool)
	out := envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		val, ok := os.LookupEnv(name)
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return ref
		}
		return val
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("unset environment variables: %s", strings.Join(missing, ", "))
	}

	return strings.ReplaceAll(out, escapedDollar, "$"), nil
}
