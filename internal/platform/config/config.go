package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix prefixes every variable. Field tags carry the full name, e.g. ESCROW_OGMIOS_URL.
	EnvPrefix = "ESCROW"

	masked = "*** Masked ***"
)

// Config is used to hold all runtime configuration.
type Config struct {
	Escrow struct {
		Network           string `default:"preprod" envconfig:"ESCROW_NETWORK" json:"NETWORK"`
		ScriptKey         string `default:"scripts/job_agreement.plutus.json" envconfig:"ESCROW_SCRIPT_KEY" json:"SCRIPT_KEY"`
		ScriptHash        string `envconfig:"ESCROW_SCRIPT_HASH" json:"SCRIPT_HASH"`
		CollateralMinimum uint64 `default:"5000000" envconfig:"ESCROW_COLLATERAL_MINIMUM" json:"COLLATERAL_MINIMUM"`
	}
	Ogmios struct {
		URL     string        `default:"ws://127.0.0.1:1337" envconfig:"ESCROW_OGMIOS_URL" json:"OGMIOS_URL"`
		Timeout time.Duration `default:"30s" envconfig:"ESCROW_OGMIOS_TIMEOUT" json:"OGMIOS_TIMEOUT"`
	}
	SubmitAPI struct {
		URL     string        `envconfig:"ESCROW_SUBMIT_API_URL" json:"SUBMIT_API_URL"`
		Timeout time.Duration `default:"30s" envconfig:"ESCROW_SUBMIT_API_TIMEOUT" json:"SUBMIT_API_TIMEOUT"`
	}
	Wallet struct {
		// Key names the stored key that signs. When EncryptedKey is set it is used instead.
		Key          string `default:"default" envconfig:"ESCROW_WALLET_KEY" json:"WALLET_KEY"`
		EncryptedKey string `envconfig:"ESCROW_WALLET_ENCRYPTED_KEY" json:"WALLET_ENCRYPTED_KEY"`
		Passphrase   string `envconfig:"ESCROW_WALLET_PASSPHRASE" json:"WALLET_PASSPHRASE"`
	}
	Storage struct {
		Region    string `default:"ap-southeast-2" envconfig:"ESCROW_STORAGE_REGION" json:"STORAGE_REGION"`
		AccessKey string `envconfig:"ESCROW_STORAGE_ACCESS_KEY" json:"STORAGE_ACCESS_KEY"`
		Secret    string `envconfig:"ESCROW_STORAGE_SECRET" json:"STORAGE_SECRET"`
		Bucket    string `default:"standalone" envconfig:"ESCROW_STORAGE_BUCKET" json:"STORAGE_BUCKET"`
		Root      string `default:"./tmp" envconfig:"ESCROW_STORAGE_ROOT" json:"STORAGE_ROOT"`
	}
	Log struct {
		Level       string `default:"info" envconfig:"ESCROW_LOG_LEVEL" json:"LOG_LEVEL"`
		Development bool   `default:"false" envconfig:"ESCROW_LOG_DEVELOPMENT" json:"LOG_DEVELOPMENT"`
	}
}

// SafeConfig masks sensitive config values
func SafeConfig(cfg Config) *Config {
	cfgSafe := cfg

	if len(cfgSafe.Wallet.EncryptedKey) > 0 {
		cfgSafe.Wallet.EncryptedKey = masked
	}
	if len(cfgSafe.Wallet.Passphrase) > 0 {
		cfgSafe.Wallet.Passphrase = masked
	}
	if len(cfgSafe.Storage.AccessKey) > 0 {
		cfgSafe.Storage.AccessKey = masked
	}
	if len(cfgSafe.Storage.Secret) > 0 {
		cfgSafe.Storage.Secret = masked
	}

	return &cfgSafe
}

// Environment returns configuration sourced from environment variables. Variables in a .env
// file in the working directory are loaded first and never override the environment.
func Environment() (*Config, error) {
	return EnvironmentFromFiles(".env")
}

// EnvironmentFromFiles is Environment with explicit .env files. Missing files are skipped.
func EnvironmentFromFiles(files ...string) (*Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, errors.Wrapf(err, "load %s", file)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}

	return &cfg, nil
}
