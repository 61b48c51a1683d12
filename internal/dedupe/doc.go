// Package dedupe finds and collapses duplicate catalog rows.
//
// Two merge jobs mutate data: games sharing an external catalog id, and
// releases sharing a (platform, game) pair. Both pick a deterministic winner,
// fold the losers' child rows into it, and delete the losers; re-running a
// merge over already-merged data is a no-op. A third job scans user libraries
// for same-title entries across platforms and only reports them, because a
// shared title is a hint, not proof of identity.
package dedupe
