// Package titles cleans raw platform titles and derives the query candidates
// and canonical keys the resolution pipeline works with.
//
// Normalize undoes the damage platform libraries inflict on names: mashed-up
// words, trademark glyphs, odd separators. Candidates layers progressively
// more aggressive rewrites on top, ordered best-guess first, for the external
// catalog search. CanonicalKey is the stricter, minimally-altered form
// compared for uniqueness in the catalog.
//
// Everything here is pure and deterministic; none of it decides identity on
// its own. Keep new cleanup heuristics in this package so the resolver and
// the duplicate scans never drift apart.
package titles
