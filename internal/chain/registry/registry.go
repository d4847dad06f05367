package registry

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"ChainDrip/internal/chain"
	"ChainDrip/internal/chain/ethereum"
	"ChainDrip/pkg/logger"
)

// Network pairs a catalog definition with the client bound to it.
type Network struct {
	Definition chain.Definition
	Client     chain.Client
}

// Registry manages the set of chain clients keyed by catalog names. The key
// set is closed once New returns: there is no dynamic registration, and
// enumeration order is the catalog file order.
type Registry struct {
	order    []string
	networks map[string]*Network
}

// New instantiates one client per catalog definition, all signing with the
// same faucet key. Any dial failure aborts startup.
func New(ctx context.Context, catalog chain.Catalog, key *ecdsa.PrivateKey) (*Registry, error) {
	if len(catalog.Chains) == 0 {
		return nil, errors.New("链目录为空，无法构建注册表")
	}
	if key == nil {
		return nil, errors.New("未提供水龙头签名私钥")
	}

	reg := &Registry{
		order:    make([]string, 0, len(catalog.Chains)),
		networks: make(map[string]*Network, len(catalog.Chains)),
	}
	for _, def := range catalog.Chains {
		client, err := ethereum.NewClient(ctx, ethereum.Config{
			Name:    def.Name,
			ChainID: def.ChainID,
			RPCURL:  def.RPCURL,
			Notes:   def.Description,
		}, key)
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("初始化网络 %s 失败: %w", def.Name, err)
		}
		// 节点返回的链 ID 与目录不一致说明目录配错了端点，
		// 记录告警但不阻止启动（节点此刻可能只是不可达）。
		if err := client.VerifyChainID(ctx); err != nil {
			logger.Named("registry").Warn("链 ID 校验未通过", "network", def.Name, "error", err)
		}
		reg.order = append(reg.order, def.Name)
		reg.networks[def.Name] = &Network{Definition: def, Client: client}
	}
	return reg, nil
}

// NewFromClients assembles a registry from prebuilt clients. Used by tests
// and by callers that construct clients themselves.
func NewFromClients(catalog chain.Catalog, clients map[string]chain.Client) (*Registry, error) {
	reg := &Registry{
		order:    make([]string, 0, len(catalog.Chains)),
		networks: make(map[string]*Network, len(catalog.Chains)),
	}
	for _, def := range catalog.Chains {
		client, ok := clients[def.Name]
		if !ok {
			return nil, fmt.Errorf("网络 %s 缺少客户端", def.Name)
		}
		reg.order = append(reg.order, def.Name)
		reg.networks[def.Name] = &Network{Definition: def, Client: client}
	}
	return reg, nil
}

// Lookup returns the network identified by name. A miss is a per-operation
// condition for the caller to handle, never a panic.
func (r *Registry) Lookup(name string) (*Network, bool) {
	if r == nil {
		return nil, false
	}
	network, ok := r.networks[name]
	return network, ok
}

// Names returns the registered network names in enumeration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Summaries returns the intent-layer view of every network, in enumeration
// order.
func (r *Registry) Summaries() []chain.Summary {
	if r == nil {
		return nil
	}
	summaries := make([]chain.Summary, 0, len(r.order))
	for _, name := range r.order {
		summaries = append(summaries, r.networks[name].Definition.Summary())
	}
	return summaries
}

// Close releases all clients managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for name, network := range r.networks {
		if network != nil && network.Client != nil {
			network.Client.Close()
		}
		delete(r.networks, name)
	}
	r.order = nil
}
