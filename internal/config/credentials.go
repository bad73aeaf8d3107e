package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Environment variables holding queue manager credentials.
const (
	EnvUser     = "WMQ_USER"
	EnvPassword = "WMQ_PASSWORD"
)

// Credentials is the optional user/password pair for the queue manager.
type Credentials struct {
	User     string
	Password string
}

// ResolveCredentials fills empty fields of c from the env file at path.
// Values already set (flags or process environment) win. An empty path
// returns c unchanged.
func ResolveCredentials(c Credentials, path string) (Credentials, error) {
	if path == "" {
		return c, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return c, fmt.Errorf("config: read env file: %w", err)
	}
	if c.User == "" {
		c.User = env[EnvUser]
	}
	if c.Password == "" {
		c.Password = env[EnvPassword]
	}
	return c, nil
}
