// Package resolve turns raw platform titles into canonical game identities.
//
// The pipeline has two layers. Matcher handles the external side: it walks the
// candidate queries for a title, stops at the first search that returns
// results, and scores the results of that one response. GameResolver and
// ReleaseMapper handle the database side: idempotent upserts that survive
// concurrent first-sighting races by re-reading the winner's row, never by
// retrying blind. Catalog-sourced identity fields, once written, are never
// regressed by later lookups.
package resolve
