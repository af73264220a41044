// Package factory provides a generic name-to-constructor registry used to
// build pluggable modules, such as metrics sinks, from configuration.
package factory
