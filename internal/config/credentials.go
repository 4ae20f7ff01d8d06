package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StockKeyEnv = "PEXELS_API_KEY"
	VoiceKeyEnv = "ELEVENLABS_API_KEY"
)

var ErrMissingCredential = errors.New("missing credential")

type Credentials struct {
	StockAPIKey string
	VoiceAPIKey string
}

// LoadCredentials reads the provider keys from the process environment,
// falling back to a KEY=value file. A missing file is not an error.
func LoadCredentials(envFile string) (Credentials, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, os.ErrNotExist):
		default:
			return Credentials{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(fileVars[key])
	}

	return Credentials{
		StockAPIKey: lookup(StockKeyEnv),
		VoiceAPIKey: lookup(VoiceKeyEnv),
	}, nil
}

// Require reports every key that the run needs but does not have.
func (c Credentials) Require(stock, voice bool) error {
	var missing []string
	if stock && c.StockAPIKey == "" {
		missing = append(missing, StockKeyEnv)
	}
	if voice && c.VoiceAPIKey == "" {
		missing = append(missing, VoiceKeyEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s in the environment or the .env file", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}
