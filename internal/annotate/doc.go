// Package annotate applies tag and category rule sets to statistics keys.
//
// ARCHITECTURE:
//
// One full pass per run. Every input key is canonicalized once, then
// evaluated against every rule:
//   - tag rules: all matching rules contribute their labels (set union);
//   - category rules: evaluated in declaration order, the first match wins.
//     A key without a matching category rule has no category.
//
// Keys that fail canonicalization are skipped and reported as warnings; the
// pass always completes and returns what it could annotate.
//
// Rule sets are read-only after construction, so an Engine may serve
// concurrent passes. With WithWorkers the per-key loop is split across
// goroutines that each fill a disjoint slice of per-key outcomes; the
// outcomes are merged in input order, so the result is identical to a
// serial pass.
package annotate
