// Package llm contains adapters for invoking large language models as the
// faucet's intent extraction engine. It abstracts away provider-specific
// APIs: callers hand over raw text plus the network catalog and get back the
// model's raw reply, keeping all structural validation on our side.
package llm
