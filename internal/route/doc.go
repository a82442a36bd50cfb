// Package route models a route template: the loaded module's exports, the
// metadata handed to its render functions, and the import-time checks that
// decide whether a route may generate pages at all.
package route
