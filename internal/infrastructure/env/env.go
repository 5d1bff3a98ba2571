package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultAppEnv = "dev"

// Load reads .env and then .env.<APP_ENV> into the process environment.
// Variables already present in the environment win over .env, while the
// APP_ENV-specific file overrides both. Missing files are not an error.
func Load() (string, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = defaultAppEnv
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return appEnv, fmt.Errorf("load .env: %w", err)
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return appEnv, fmt.Errorf("load %s: %w", envFile, err)
	}

	return appEnv, nil
}

// ToBool treats only a case-insensitive "true" as true. An unset variable
// (ok == false) yields def.
func ToBool(value string, ok bool, def bool) bool {
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func GetBool(key string, def bool) bool {
	value, ok := os.LookupEnv(key)
	return ToBool(value, ok, def)
}

// Flag is a bool that decodes from the environment with ToBool semantics,
// so "yes" or "1" read as false instead of failing the whole config.
type Flag bool

func (f *Flag) Decode(value string) error {
	*f = Flag(ToBool(value, true, false))
	return nil
}

func (f Flag) Bool() bool {
	return bool(f)
}
