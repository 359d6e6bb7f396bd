// Package config loads the evaluation service credentials from a local
// INI-style credentials file: named [SECTION] headers with KEY = value
// lines.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

const (
	// Section and key names in the credentials file.
	credentialsSection = "deepseek"
	credentialsKey     = "deepseek_api_key"

	// InsecureDefaultKey is a demo-only placeholder accepted when the
	// credentials file is absent and --allow-default-key is set. It is
	// not a working key and must never be used in production.
	InsecureDefaultKey = "sk-demo-0000000000000000"
)

// LoadAPIKey reads the evaluation service API key from the credentials
// file at path. Missing file, section, or key is a descriptive error
// unless allowDefault is set, in which case the insecure demo key is
// returned and a warning is logged.
func LoadAPIKey(path string, allowDefault bool) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if allowDefault {
			slog.Warn("credentials file missing, using INSECURE demo key",
				"path", path)
			return InsecureDefaultKey, nil
		}
		return "", fmt.Errorf("credentials file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read credentials file %s: %w", path, err)
	}

	key := v.GetString(credentialsSection + "." + credentialsKey)
	if key == "" {
		if allowDefault {
			slog.Warn("credentials key missing, using INSECURE demo key",
				"path", path, "section", credentialsSection, "key", credentialsKey)
			return InsecureDefaultKey, nil
		}
		return "", fmt.Errorf("credentials file %s: key %s not found in section [%s]",
			path, credentialsKey, credentialsSection)
	}
	return key, nil
}
