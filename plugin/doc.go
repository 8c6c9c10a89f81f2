// Package plugin provides the sources and sinks that connect printing to the outside world.
// Splitting these out into their own, independent (except what's provided in pkg) packages means that they can be omitted in favor of a smaller build size if the functionality isn't needed.
//
// "Source" functions take a context and string arguments, and return an iterator.Iterator over entries in timestamp order.
// Sources should close any resources, like file handles or channels, and stop the associated goroutine when they have reached the end of their input or the context is cancelled.
//
// "Sink" functions take a context and string arguments, and return a render.Sink that receives printed lines.
// If the returned sink is also an io.Closer, then it's closed once printing is done.
//
//	Current Plugins:
//	- file provides a file source with tail support, and a file sink.
//	- stdstream provides a STDIN source, and STDOUT and STDERR sinks.
//	- store provides a SQLite entry source, and a SQLite line sink.
package plugin
