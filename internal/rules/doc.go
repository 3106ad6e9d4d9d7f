// Package rules parses human-authored tag and category definitions into
// ordered rule sets.
//
// Rule sources use a line-oriented format (".hexa" files):
//
//	# comment
//	::::::
//	:::tags
//	disk-io
//	:::keys
//	node.N.disk.N.*
//
// "::::::" starts a new block. ":::name" opens a field in the current block.
// Every other non-blank, non-comment line is a value of the most recently
// opened field. Each value of a "keys" field becomes one Rule carrying the
// labels declared by its block.
//
// A source either loads completely or fails with a *SyntaxError naming the
// file and line; a partially loaded rule set is never returned.
//
// Parsed rule sets can be cached as YAML. The cache is an optimization only:
// it is reused when it is at least as new as the source and was built from
// identical source content.
package rules
