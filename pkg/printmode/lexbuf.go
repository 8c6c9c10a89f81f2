package printmode

type lexBuf struct {
	buf []rune
	pos int
}

func newLexBuf(text string) *lexBuf {
	return &lexBuf{
		buf: []rune(text),
	}
}

func (b *lexBuf) peek() (rune, bool) {
	return b.peekAt(0)
}

func (b *lexBuf) peekAt(offset int) (rune, bool) {
	i := b.pos + offset
	if i < 0 || i >= len(b.buf) {
		return 0, false
	}
	return b.buf[i], true
}

func (b *lexBuf) read() (rune, bool) {
	c, ok := b.peek()
	if ok {
		b.pos++
	}
	return c, ok
}

func (b *lexBuf) skip(n int) {
	b.pos += n
	if b.pos > len(b.buf) {
		b.pos = len(b.buf)
	}
}

// runLength returns how many times c repeats starting at the current position.
func (b *lexBuf) runLength(c rune) int {
	return b.runLengthAt(b.pos, c)
}

func (b *lexBuf) runLengthAt(i int, c rune) int {
	n := 0
	for ; i+n < len(b.buf) && b.buf[i+n] == c; n++ {
	}
	return n
}

// column is the 1-based position of the next rune to be read.
func (b *lexBuf) column() int {
	return b.pos + 1
}
