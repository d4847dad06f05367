// Package config provides centralized configuration management for the
// dripd runtime: the JSON configuration file, default derivation, and the
// environment-backed secrets (faucet signing key, model credentials) that
// deliberately never live in the file itself.
package config
