package env

import (
	"os"
	"strings"
)

// Lookup returns the trimmed value of key. Unset and blank variables are
// both reported as absent.
func Lookup(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	return value, value != ""
}

// Get is Lookup with a fallback for absent values.
func Get(key, fallback string) string {
	if value, ok := Lookup(key); ok {
		return value
	}
	return fallback
}
