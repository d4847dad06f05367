// Package intent turns free-form faucet requests into validated structured
// intents. Understanding comes from an external language model; target
// network selection additionally has a deterministic keyword path, and the
// JSON-shape validation always runs locally regardless of which model
// service is wired in.
package intent
