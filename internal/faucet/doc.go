// Package faucet contains the disbursement pipeline: sequential per-network
// dispatch with balance checks, bounded confirmation polling, and the
// service that runs one user request end to end. Only configuration errors
// are fatal anywhere in this package; everything else is converted into a
// per-network result.
package faucet
