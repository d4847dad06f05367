package chain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog models the structure of configs/chains.yaml. Definitions keep the
// file order: result reporting and "all networks" expansion both rely on a
// stable enumeration order.
type Catalog struct {
	Chains []Definition `yaml:"chains"`
}

// Definition describes a single testnet the faucet can dispense on.
type Definition struct {
	Name        string       `yaml:"name"`
	ChainID     uint64       `yaml:"chain_id"`
	Symbol      string       `yaml:"symbol"`
	Decimals    int          `yaml:"decimals"`
	RPCURL      string       `yaml:"rpc_url"`
	WSURL       string       `yaml:"ws_url"`
	ExplorerURL string       `yaml:"explorer_url"`
	Faucet      FaucetPolicy `yaml:"faucet"`
	Description string       `yaml:"description"`
}

// FaucetPolicy fixes what one request is worth on a network.
type FaucetPolicy struct {
	Symbol string `yaml:"symbol"`
	Amount string `yaml:"amount"`
}

// Summary is the per-network context handed to the intent layer.
type Summary struct {
	Name   string
	Symbol string
	Amount string
}

// Summary converts a definition into its intent-layer view.
func (d Definition) Summary() Summary {
	return Summary{Name: d.Name, Symbol: d.Faucet.Symbol, Amount: d.Faucet.Amount}
}

// LoadCatalog parses the YAML file containing chain metadata and validates
// every definition. Extending the faucet to a new testnet is an edit to this
// file, not a code change.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Catalog{}, fmt.Errorf("链目录文件路径不能为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("读取链目录失败: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("解析链目录失败: %w", err)
	}
	if len(catalog.Chains) == 0 {
		return Catalog{}, fmt.Errorf("链目录中没有任何网络定义")
	}

	seen := make(map[string]struct{}, len(catalog.Chains))
	for i := range catalog.Chains {
		def := &catalog.Chains[i]
		def.Name = strings.ToLower(strings.TrimSpace(def.Name))
		if def.Name == "" {
			return Catalog{}, fmt.Errorf("第 %d 个网络缺少名称", i+1)
		}
		if _, dup := seen[def.Name]; dup {
			return Catalog{}, fmt.Errorf("网络 %s 重复定义", def.Name)
		}
		seen[def.Name] = struct{}{}
		if def.ChainID == 0 {
			return Catalog{}, fmt.Errorf("网络 %s 缺少 chain_id", def.Name)
		}
		if strings.TrimSpace(def.RPCURL) == "" {
			return Catalog{}, fmt.Errorf("网络 %s 缺少 rpc_url", def.Name)
		}
		if def.Decimals <= 0 {
			def.Decimals = 18
		}
		if def.Faucet.Symbol == "" {
			def.Faucet.Symbol = def.Symbol
		}
		if def.Faucet.Symbol == "" {
			return Catalog{}, fmt.Errorf("网络 %s 缺少代币符号", def.Name)
		}
		if _, err := ParseAmount(def.Faucet.Amount, def.Decimals); err != nil {
			return Catalog{}, fmt.Errorf("网络 %s 的默认发放额度非法: %w", def.Name, err)
		}
	}

	return catalog, nil
}

// Names returns the catalog's network names in file order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Chains))
	for _, def := range c.Chains {
		names = append(names, def.Name)
	}
	return names
}

// Summaries returns the intent-layer view of every definition, in file order.
func (c Catalog) Summaries() []Summary {
	summaries := make([]Summary, 0, len(c.Chains))
	for _, def := range c.Chains {
		summaries = append(summaries, def.Summary())
	}
	return summaries
}
