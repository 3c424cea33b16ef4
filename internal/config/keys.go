package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckAPIKeys returns the status of all provider credentials. Missing
// credentials are reported, never fatal: they only shrink the tool set.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("DART API Key", cfg.Providers.Dart.APIKey, "KOFIN_PROVIDERS_DART_API_KEY"),
		checkKey("KIS App Key", cfg.Providers.Kis.AppKey, "KOFIN_PROVIDERS_KIS_APP_KEY"),
		checkKey("KIS App Secret", cfg.Providers.Kis.AppSecret, "KOFIN_PROVIDERS_KIS_APP_SECRET"),
		checkKey("ECOS API Key", cfg.Providers.Ecos.APIKey, "KOFIN_PROVIDERS_ECOS_API_KEY"),
		checkKey("KOSIS API Key", cfg.Providers.Kosis.APIKey, "KOFIN_PROVIDERS_KOSIS_API_KEY"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		// Check if it came from env
		if os.Getenv(envVar) != "" {
			status.Source = KeySourceEnv
		} else {
			status.Source = KeySourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
