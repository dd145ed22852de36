package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/authd/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAccessTTL    = "1h"
	defaultRefreshTTL   = "7d"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the authd service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key to sign access tokens
	AccessSecret string

	// Secret key to sign refresh tokens and key their stored digests
	// Must differ from the access secret
	RefreshSecret string

	// Token lifetimes like "1h" or "7d"
	AccessTTL  string
	RefreshTTL string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	// PORT holds the bare port number, every interface is listened on
	setPort := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = ":" + value
			}
		}
	}

	envMap := map[string]func(string){
		"PORT":                     setPort(&c.ListenAddr),
		"DATABASE_URI":             setString(&c.DatabaseDSN),
		"JWT_SECRET":               setString(&c.AccessSecret),
		"JWT_EXPIRES_IN":           setString(&c.AccessTTL),
		"REFRESH_TOKEN_SECRET":     setString(&c.RefreshSecret),
		"REFRESH_TOKEN_EXPIRES_IN": setString(&c.RefreshTTL),
		"LOG_LEVEL":                setString(&c.LogLevel),
		"ENVIRONMENT":              setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("authd", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "jwt-secret", c.AccessSecret, "Secret key to sign access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key to sign refresh tokens")
	fs.StringVar(&c.AccessTTL, "jwt-expires-in", c.AccessTTL, "Access token lifetime (like 1h or 7d)")
	fs.StringVar(&c.RefreshTTL, "refresh-expires-in", c.RefreshTTL, "Refresh token lifetime (like 1h or 7d)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
