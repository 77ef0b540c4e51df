// Package patterns learns from recorded outcomes which documents tend to
// work, and in which domains.
//
// Each document accumulates a Pattern: how often it was used, the running
// success rate, the domains it was used in and the modifications people
// made to it. The Predictor turns a Pattern and a new usage context into a
// success estimate, and summarizes how a document's usage is evolving.
package patterns
