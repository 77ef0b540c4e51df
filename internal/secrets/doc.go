// Package secrets detects and redacts credentials in document text using
// the Gitleaks rule set.
//
// A TOML allowlist with the same [allowlist] shape as .gitleaks.toml can
// exclude content patterns that are known to be safe:
//
//	[allowlist]
//	regexes = ['''EXAMPLE_[A-Z]+''']
//	paths = ['''fixtures/''']
package secrets
