// Package stream declares the interfaces of the record-streaming framework
// that surrounds the DSL engine. The engine itself never calls these: it
// only launches shell subprocesses. They are declared here so algorithm
// modules elsewhere in the toolchain share one contract.
package stream

// Record is one alignment record flowing between algorithm modules. The
// concrete representation belongs to the format library behind the adapter.
type Record interface{}

// RecordStream is the view an algorithm module has of the surrounding
// multi-threaded framework: an ordered pull of input records, a push of
// output records, and the verbosity flag.
type RecordStream interface {
	// NextInput returns the next input record, or ok=false at end of
	// stream.
	NextInput() (rec Record, ok bool)

	// PutOutput hands one record downstream.
	PutOutput(rec Record)

	// Verbose reports whether diagnostic logging is enabled for the run.
	Verbose() bool
}

// AlignmentWriter is the thin adapter over an external alignment-format
// library that algorithm modules write through. Implementations are not
// part of this engine.
type AlignmentWriter interface {
	// Open prepares filename for writing with the given header text and
	// reference sequence names.
	Open(filename, headerText string, references []string) error

	// SetCompressionLevel configures output compression before records are
	// saved; ignored by formats without compression.
	SetCompressionLevel(level int)

	// SaveAlignment appends one record.
	SaveAlignment(rec Record) error

	Close() error
}
