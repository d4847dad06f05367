package registry

import (
	"context"
	"math/big"
	"testing"

	"ChainDrip/internal/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type fakeClient struct {
	chainID *big.Int
	closed  bool
}

func (f *fakeClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeClient) SendNative(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error) {
	return common.Hash{}, nil
}

func (f *fakeClient) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func (f *fakeClient) SignerAddress() common.Address { return common.Address{} }

func (f *fakeClient) ChainID() *big.Int { return f.chainID }

func (f *fakeClient) Close() { f.closed = true }

func testCatalog() chain.Catalog {
	return chain.Catalog{Chains: []chain.Definition{
		{
			Name:     "sepolia",
			ChainID:  11155111,
			Symbol:   "ETH",
			Decimals: 18,
			RPCURL:   "http://localhost:8545",
			Faucet:   chain.FaucetPolicy{Symbol: "ETH", Amount: "0.01"},
		},
		{
			Name:     "polygon",
			ChainID:  80002,
			Symbol:   "POL",
			Decimals: 18,
			RPCURL:   "http://localhost:8546",
			Faucet:   chain.FaucetPolicy{Symbol: "POL", Amount: "0.02"},
		},
	}}
}

func testRegistry(t *testing.T) (*Registry, map[string]*fakeClient) {
	t.Helper()
	catalog := testCatalog()
	clients := map[string]*fakeClient{
		"sepolia": {chainID: big.NewInt(11155111)},
		"polygon": {chainID: big.NewInt(80002)},
	}
	wired := make(map[string]chain.Client, len(clients))
	for name, client := range clients {
		wired[name] = client
	}
	reg, err := NewFromClients(catalog, wired)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return reg, clients
}

func TestLookupReturnsConsistentConfig(t *testing.T) {
	reg, _ := testRegistry(t)

	for _, name := range reg.Names() {
		network, ok := reg.Lookup(name)
		if !ok {
			t.Fatalf("lookup(%q) should succeed", name)
		}
		if network.Definition.Faucet.Symbol == "" {
			t.Fatalf("network %q has empty faucet symbol", name)
		}
		if network.Client.ChainID().Uint64() != network.Definition.ChainID {
			t.Fatalf("network %q chain id mismatch: client %s, definition %d",
				name, network.Client.ChainID(), network.Definition.ChainID)
		}
	}
}

func TestLookupUnknownIsAbsent(t *testing.T) {
	reg, _ := testRegistry(t)

	if _, ok := reg.Lookup("foo"); ok {
		t.Fatalf("lookup of unregistered name must report absent")
	}
}

func TestNamesPreserveCatalogOrder(t *testing.T) {
	reg, _ := testRegistry(t)

	names := reg.Names()
	if len(names) != 2 || names[0] != "sepolia" || names[1] != "polygon" {
		t.Fatalf("enumeration order must match catalog order, got %v", names)
	}
}

func TestNewFromClientsRequiresEveryNetwork(t *testing.T) {
	catalog := testCatalog()
	if _, err := NewFromClients(catalog, map[string]chain.Client{
		"sepolia": &fakeClient{chainID: big.NewInt(11155111)},
	}); err == nil {
		t.Fatalf("expected error for missing client")
	}
}

func TestCloseReleasesClients(t *testing.T) {
	reg, clients := testRegistry(t)

	reg.Close()
	for name, client := range clients {
		if !client.closed {
			t.Fatalf("client %q not closed", name)
		}
	}
	if len(reg.Names()) != 0 {
		t.Fatalf("registry should be empty after close")
	}
}
