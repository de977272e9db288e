package cmd

import (
	"context"
	"encoding/json"

	"github.com/tokenized/milestone-escrow/internal/escrow"
	"github.com/tokenized/milestone-escrow/internal/platform/config"
	"github.com/tokenized/milestone-escrow/internal/platform/db"
	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/internal/platform/network"
	"github.com/tokenized/milestone-escrow/internal/receipts"
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/ogmios"
	"github.com/tokenized/milestone-escrow/pkg/storage"
	"github.com/tokenized/milestone-escrow/pkg/submitapi"
	"github.com/tokenized/milestone-escrow/pkg/wallet"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// envKeyName is the wallet name of a key supplied through the environment.
const envKeyName = "environment"

// app holds everything a command may need. Only what a command asks for is connected.
type app struct {
	ctx      context.Context
	config   *config.Config
	net      cardano.Network
	store    storage.Storage
	masterDB *db.DB
	wallet   *wallet.Wallet

	network      *network.Network
	orchestrator *escrow.Orchestrator
	receipts     *receipts.Repository
}

// setup loads the configuration, logging, storage and wallet.
func setup(c *cobra.Command) (*app, error) {
	envFile, _ := c.Flags().GetString(FlagEnvFile)

	cfg, err := config.EnvironmentFromFiles(envFile)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	if err := logger.Setup(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	}); err != nil {
		return nil, errors.Wrap(err, "logger")
	}

	ctx := logger.ContextWithLogSubSystem(logger.NewContext(), "Main")

	cfgJSON, err := json.Marshal(config.SafeConfig(*cfg))
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	logger.Verbose(ctx, "Build %v (%v on %v)", buildVersion, buildUser, buildDate)
	logger.Verbose(ctx, "Config : %s", cfgJSON)

	net, err := cardano.NewNetwork(cfg.Escrow.Network)
	if err != nil {
		return nil, errors.Wrap(err, "network")
	}

	storageConfig := storage.NewConfig(cfg.Storage.Region, cfg.Storage.AccessKey,
		cfg.Storage.Secret, cfg.Storage.Bucket, cfg.Storage.Root)
	masterDB := db.New(storageConfig)
	logger.Verbose(ctx, "Storage : %s", storageConfig)

	w := wallet.New(net)
	if err := w.Load(ctx, masterDB.Storage()); err != nil {
		return nil, errors.Wrap(err, "load wallet")
	}

	if len(cfg.Wallet.EncryptedKey) > 0 {
		key, err := wallet.DecryptKey([]byte(cfg.Wallet.EncryptedKey),
			[]byte(cfg.Wallet.Passphrase))
		if err != nil {
			return nil, errors.Wrap(err, "environment key")
		}
		_, err = w.Import(envKeyName, key, []byte(cfg.Wallet.Passphrase))
		key.Zero()
		if err != nil {
			return nil, errors.Wrap(err, "environment key")
		}
	}

	return &app{
		ctx:      ctx,
		config:   cfg,
		net:      net,
		store:    masterDB.Storage(),
		masterDB: masterDB,
		wallet:   w,
		receipts: receipts.NewRepository(masterDB),
	}, nil
}

// connect creates the orchestrator on the configured node and script.
func (a *app) connect() error {
	cfg := a.config

	data, err := a.store.Read(a.ctx, cfg.Escrow.ScriptKey)
	if err != nil {
		return errors.Wrapf(err, "read script %s", cfg.Escrow.ScriptKey)
	}

	script, err := cardano.LoadPlutusV2Script(data)
	if err != nil {
		return errors.Wrap(err, "load script")
	}

	ogmiosConfig := ogmios.NewConfig(cfg.Ogmios.URL, cfg.Ogmios.Timeout)
	submitConfig := &submitapi.Config{URL: cfg.SubmitAPI.URL, Timeout: cfg.SubmitAPI.Timeout}
	logger.Verbose(a.ctx, "Ogmios : %s", ogmiosConfig)

	a.network = network.NewNetwork(ogmiosConfig, submitConfig)

	orchestrator, err := escrow.NewOrchestrator(escrow.Config{
		Network:           a.net,
		CollateralMinimum: cfg.Escrow.CollateralMinimum,
	}, a.network, script, cfg.Escrow.ScriptHash)
	if err != nil {
		a.network.Close()
		a.network = nil
		return err
	}
	orchestrator.SetReceiptRecorder(a.receipts)

	if err := escrow.RegisterViews(); err != nil {
		logger.Warn(a.ctx, "Failed to register stats views : %s", err)
	}

	a.orchestrator = orchestrator
	logger.Verbose(a.ctx, "Script address %s", orchestrator.ScriptAddress())
	return nil
}

// signer returns the configured signing key, or the named one.
func (a *app) signer(name string) (*wallet.Signer, error) {
	if len(name) == 0 {
		name = a.config.Wallet.Key
		if len(a.config.Wallet.EncryptedKey) > 0 {
			name = envKeyName
		}
	}

	if len(a.config.Wallet.Passphrase) == 0 {
		return nil, errors.New("Missing wallet passphrase")
	}

	return a.wallet.Signer(name, []byte(a.config.Wallet.Passphrase))
}

func (a *app) close() {
	if a.network != nil {
		if err := a.network.Close(); err != nil {
			logger.Warn(a.ctx, "Failed to close network : %s", err)
		}
	}
	a.masterDB.Close()
	logger.Sync()
}
