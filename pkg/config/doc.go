// Package config loads configuration structs from environment variables,
// optionally seeded from .env files.
//
// Parsing is done by github.com/caarlos0/env/v11 and files are read with
// github.com/joho/godotenv. Each package owns a Config struct with env tags;
// the binary nests them into one struct and calls Load once at startup.
package config
