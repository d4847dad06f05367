package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ChainDrip/internal/api"
	"ChainDrip/internal/chain"
	"ChainDrip/internal/chain/registry"
	"ChainDrip/internal/config"
	"ChainDrip/internal/faucet"
	"ChainDrip/internal/intent"
	"ChainDrip/internal/llm"
	"ChainDrip/internal/llm/openai"
	"ChainDrip/internal/session"
	"ChainDrip/pkg/logger"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

// main 是 dripd 水龙头守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("dripd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	// .env 是可选的，本地开发时用来注入私钥和 API Key。
	_ = godotenv.Load()

	configPath := os.Getenv("DRIPD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "dripd.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Log.Audit.Enabled,
			Path:       cfg.Log.Audit.Path,
			MaxSizeMB:  cfg.Log.Audit.MaxSizeMB,
			MaxBackups: cfg.Log.Audit.MaxBackups,
			MaxAgeDays: cfg.Log.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// 私钥格式错误属于致命配置错误，启动即失败。
	keyHex, err := cfg.PrivateKeyHex()
	if err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("解析签名私钥失败: %w", err)
	}

	catalog, err := chain.LoadCatalog(cfg.Chains.Catalog)
	if err != nil {
		return err
	}

	reg, err := registry.New(ctx, catalog, key)
	if err != nil {
		return err
	}
	defer reg.Close()

	llmClient, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	svc := faucet.NewService(
		intent.NewParser(llmClient),
		reg,
		faucet.WithPollInterval(cfg.Faucet.PollInterval()),
		faucet.WithConfirmWait(cfg.Faucet.ConfirmWait()),
	)

	logger.L().Info("dripd 启动完成",
		"networks", reg.Names(),
		"faucet_account", crypto.PubkeyToAddress(key.PublicKey).Hex(),
	)

	if cfg.Server.Address != "" {
		server := api.NewServer(cfg.Server.Address, svc, reg)
		go func() {
			if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.L().Error("HTTP 服务异常退出", "error", err)
			}
		}()
	}

	return session.New(svc, os.Stdin, os.Stdout).Run(ctx)
}

// createLLMClient 按配置选择抽取引擎的接入方式。
func createLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		apiKey, err := cfg.OpenAIKey()
		if err != nil {
			return nil, err
		}
		return openai.NewClient(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Model:   cfg.LLM.OpenAI.Model,
			Timeout: cfg.LLM.OpenAI.Timeout(),
		})
	default:
		return nil, fmt.Errorf("未知的抽取引擎 provider: %s", cfg.LLM.Provider)
	}
}
