package common

import "strings"

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// QualifiedName joins a namespace path and a name with "::".
func QualifiedName(namespace []string, name string) string {
	if len(namespace) == 0 {
		return name
	}

	return strings.Join(namespace, "::") + "::" + name
}
