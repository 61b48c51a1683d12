// Package igdb provides the external game catalog client used during
// resolution.
//
// The client speaks the catalog's query dialect (plain-text field selections
// POSTed to an endpoint per entity) and maps responses into typed records at
// the boundary; nothing downstream sees raw payloads. Cover URLs are
// normalized to https and a usable size before they leave this package.
package igdb
