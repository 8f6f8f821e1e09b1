// Package check contains the staged address checks used by the validation
// pipeline: syntax (no network), MX lookup (cached DNS), and the optional
// SMTP mailbox probe. The pipeline in the root package sequences them and
// folds their outcomes into a final status.
package check
