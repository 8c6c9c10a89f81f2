// Package pkg provides the core functionality of printing log entries with a print mode.
// This package (and subpackages) is a dependency of anything in the plugin package.
//   - The entries package contains the known attribute keys and the immutable entries.LogEntry.
//   - The iterator package contains functions for creating, ordering, and altering an iterator.Iterator.
//   - The printmode package parses print mode templates, and evaluates them against entries in order.
//   - The render package drives a template over an iterator, writing each printed line to a render.Sink.
//   - The config package reads settings like the print mode from files and the environment.
package pkg
