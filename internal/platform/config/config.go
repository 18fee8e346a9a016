// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, identity client) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the identity API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL) for the identity audit trail
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Access token verification. The public key is the realm's RS256 key.
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`
	JWTIssuerURI  string `env:"JWT_ISSUER_URI"`

	// AdminAuthority is required to manage other users' roles.
	AdminAuthority string `env:"ADMIN_AUTHORITY" envDefault:"ROLE_ADMIN"`

	// SelfAssignableRoles may be added by users to their own account.
	// AdminAuthority is never self-assignable, even when listed here.
	SelfAssignableRoles []string `env:"SELF_ASSIGNABLE_ROLES" envSeparator:"," envDefault:"ROLE_USER"`

	// Identity provider (Keycloak)
	Keycloak KeycloakConfig `envPrefix:"KEYCLOAK_"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"yomira.app"`
}

// KeycloakConfig locates the realm and the credentials used against it.
type KeycloakConfig struct {
	ServerURL     string `env:"SERVER_URL,required"`
	Realm         string `env:"REALM,required"`
	ClientID      string `env:"CLIENT_ID,required"`
	ClientSecret  string `env:"CLIENT_SECRET"`
	AdminRealm    string `env:"ADMIN_REALM"    envDefault:"master"`
	AdminClientID string `env:"ADMIN_CLIENT_ID" envDefault:"admin-cli"`
	AdminUsername string `env:"ADMIN_USERNAME,required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.Keycloak.ServerURL = strings.TrimRight(cfg.Keycloak.ServerURL, "/")

	// Keycloak tokens carry the realm URL as issuer unless told otherwise.
	if cfg.JWTIssuerURI == "" {
		cfg.JWTIssuerURI = cfg.Keycloak.ServerURL + "/realms/" + cfg.Keycloak.Realm
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// OriginSuffix returns the origin suffix accepted by CORS outside development.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
