// Package statkey converts statistics key names between their concrete and
// canonical forms.
//
// A statistics key is a "."-separated list of non-empty segments such as
// "node.1.disk.2.reads". Segments that are non-negative decimal integers are
// repetition indices (per-node, per-disk, ...). The canonical form replaces
// every index with the placeholder "N":
//
//	node.1.disk.2.reads -> node.N.disk.N.reads
//
// Canonicalization looks at the segment list only and never at other keys,
// so it is safe to call from any goroutine.
package statkey
