package stream

// Buffer is a channel-backed RecordStream connecting two in-process
// modules. The producer feeds the input side and closes it; the consumer
// pulls with NextInput and pushes results with PutOutput. Both sides are
// safe for concurrent use.
type Buffer struct {
	in      chan Record
	out     chan Record
	verbose bool
}

// NewBuffer builds a Buffer whose input and output channels hold up to
// capacity records each.
func NewBuffer(capacity int, verbose bool) *Buffer {
	return &Buffer{
		in:      make(chan Record, capacity),
		out:     make(chan Record, capacity),
		verbose: verbose,
	}
}

// Feed pushes one record onto the input side, blocking when full.
func (b *Buffer) Feed(rec Record) {
	b.in <- rec
}

// CloseInput marks the end of the input stream; NextInput reports ok=false
// once the buffered records are drained.
func (b *Buffer) CloseInput() {
	close(b.in)
}

func (b *Buffer) NextInput() (Record, bool) {
	rec, ok := <-b.in
	return rec, ok
}

func (b *Buffer) PutOutput(rec Record) {
	b.out <- rec
}

// Output exposes the downstream side for the next consumer.
func (b *Buffer) Output() <-chan Record {
	return b.out
}

// CloseOutput marks the end of the output stream.
func (b *Buffer) CloseOutput() {
	close(b.out)
}

func (b *Buffer) Verbose() bool {
	return b.verbose
}
