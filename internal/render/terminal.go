package render

import (
	"bufio"
	"context"
	"io"
)

const maxReplyWidth = 100

// ReplyWidth is the wrap width for replies on a terminal termWidth columns
// wide. 0 disables wrapping.
func ReplyWidth(termWidth int) int {
	if termWidth <= 0 {
		return 0
	}
	return min(termWidth, maxReplyWidth)
}

// WaitForEnter returns after a line is read from r or ctx is done.
func WaitForEnter(ctx context.Context, r io.Reader) {
	read := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(r).ReadString('\n')
		close(read)
	}()

	select {
	case <-read:
	case <-ctx.Done():
	}
}
