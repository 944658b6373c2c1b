package internal

import "os"

// detectSystemLocale returns the locale string from the environment.
// For currency, LC_MONETARY is the most specific, then LC_ALL, then LANG.
// Returns empty string if no usable locale is set.
func detectSystemLocale() string {
	for _, envVar := range []string{"LC_MONETARY", "LC_ALL", "LANG"} {
		locale := os.Getenv(envVar)
		if locale != "" && locale != "C" && locale != "POSIX" && locale != "C.UTF-8" {
			return locale
		}
	}
	return ""
}
