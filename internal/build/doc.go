// Package build runs one generation pass over a set of routes.
//
// A run hashes dependencies, imports and validates each route's module,
// gathers its data and renders its pages in barrier-synchronised stages.
// Once every route has settled the page index is checked for duplicate
// permalinks, the output tree is probed in a dry run, pages are committed
// and cache records are written for the routes that made it through.
//
// Every execution path (CLI build, watch rebuilds, tests) goes through
// Service.
package build
