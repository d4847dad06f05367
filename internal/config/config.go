package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	xerrors "ChainDrip/internal/errors"
)

// Config 描述 dripd 在启动阶段需要加载的核心配置。
// 密钥类内容一律来自环境变量，配置文件只记录变量名。
type Config struct {
	Server ServerConfig `json:"server"`
	Log    LogConfig    `json:"log"`
	LLM    LLMConfig    `json:"llm"`
	Chains ChainsConfig `json:"chains"`
	Faucet FaucetConfig `json:"faucet"`
}

// ServerConfig 控制可选的 HTTP 服务。地址为空时不启动。
type ServerConfig struct {
	Address string `json:"address"`
}

// LogConfig 控制日志输出与发放审计日志。
type LogConfig struct {
	Level       string      `json:"level"`
	Format      string      `json:"format"`
	OutputPaths []string    `json:"output_paths"`
	Audit       AuditConfig `json:"audit"`
}

// AuditConfig 控制发放审计日志的落盘与轮转。
type AuditConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// LLMConfig 用于配置意图抽取引擎的调用方式。
type LLMConfig struct {
	Provider string       `json:"provider"`
	OpenAI   OpenAIConfig `json:"openai"`
}

// OpenAIConfig 描述 OpenAI 接入所需的信息。
type OpenAIConfig struct {
	APIKeyEnv      string `json:"api_key_env"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout 返回抽取引擎调用的超时时间。
func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChainsConfig 指向链目录文件与签名私钥所在的环境变量。
type ChainsConfig struct {
	Catalog       string `json:"catalog"`
	PrivateKeyEnv string `json:"private_key_env"`
}

// FaucetConfig 控制发放流程的轮询节奏。
type FaucetConfig struct {
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	ConfirmWaitSeconds  int `json:"confirm_wait_seconds"`
}

// PollInterval 返回确认状态的重查间隔。
func (c FaucetConfig) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ConfirmWait 返回等待确认的时间上限。
func (c FaucetConfig) ConfirmWait() time.Duration {
	if c.ConfirmWaitSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ConfirmWaitSeconds) * time.Second
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, xerrors.New(xerrors.CodeConfigInvalid, "配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigInvalid, err, "打开配置文件失败")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigInvalid, err, "读取配置文件失败")
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigInvalid, err, "解析配置失败")
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.OpenAI.APIKeyEnv == "" {
		c.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}

	if c.Chains.Catalog == "" {
		c.Chains.Catalog = filepath.Join(baseDir, "chains.yaml")
	} else if !filepath.IsAbs(c.Chains.Catalog) {
		c.Chains.Catalog = filepath.Join(baseDir, c.Chains.Catalog)
	}
	if c.Chains.PrivateKeyEnv == "" {
		c.Chains.PrivateKeyEnv = "DRIPD_PRIVATE_KEY"
	}

	if c.Log.Audit.Enabled && c.Log.Audit.Path != "" && !filepath.IsAbs(c.Log.Audit.Path) {
		c.Log.Audit.Path = filepath.Join(baseDir, c.Log.Audit.Path)
	}
}

// privateKeyPattern 约束签名私钥必须是 0x 开头的 64 位十六进制。
var privateKeyPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// PrivateKeyHex 从环境变量读取签名私钥并校验格式。格式不符直接
// 失败，这是进程级的致命错误。
func (c *Config) PrivateKeyHex() (string, error) {
	raw := strings.TrimSpace(os.Getenv(c.Chains.PrivateKeyEnv))
	if raw == "" {
		return "", xerrors.Newf(xerrors.CodeConfigInvalid, "环境变量 %s 未设置签名私钥", c.Chains.PrivateKeyEnv)
	}
	if !privateKeyPattern.MatchString(raw) {
		return "", xerrors.Newf(xerrors.CodeConfigInvalid, "签名私钥格式非法: 需要 0x 开头的 64 位十六进制")
	}
	return raw, nil
}

// OpenAIKey 从环境变量读取抽取引擎的凭证。
func (c *Config) OpenAIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.LLM.OpenAI.APIKeyEnv))
	if key == "" {
		return "", xerrors.Newf(xerrors.CodeConfigInvalid, "环境变量 %s 未设置 API Key", c.LLM.OpenAI.APIKeyEnv)
	}
	return key, nil
}
