// Package chain houses blockchain connectivity utilities: the testnet
// catalog loaded at startup, the client abstraction each network is bound
// to, and exact decimal/wei conversion helpers. It lets the faucet treat
// supported networks such as Sepolia, Amoy and BSC testnet uniformly.
package chain
