package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender abstracts the push transport. The concrete implementation is
// the Expo adapter; tests swap in a recorder.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}

// dedupe strips duplicate device tokens before fan-out.
func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
