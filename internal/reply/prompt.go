package reply

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// BuildUserMessage combines the saved post and the comment into the user
// message sent with every request. An empty post still produces both headers.
func BuildUserMessage(post, comment string) string {
	return fmt.Sprintf("ORIGINAL POST CONTEXT:\n%s\n\nUSER COMMENT TO REPLY TO:\n%s", post, comment)
}

// preview returns the first n characters of s followed by "...".
func preview(s string, n int) string {
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String() + "..."
}

// length counts user-perceived characters after trimming surrounding whitespace.
func length(s string) int {
	return uniseg.GraphemeClusterCount(strings.TrimSpace(s))
}
