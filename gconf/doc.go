/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Configuration is stored in the same key-value store as the rest of the
state, under a per-package singleton key. This means configuration changes
share the atomicity guarantees of the operation that mutates them, and they
survive restarts whenever the backing store does.
*/
package gconf
