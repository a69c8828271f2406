// Package answer defines the synthesizer that turns retrieved passages and
// a user query into a natural-language answer. Treated as a black box that
// may be slow or occasionally fail; failures surface to the user as "could
// not generate an answer", never as a crash of the request path.
package answer

import (
	"context"

	"github.com/creastat/knowledgebot/session"
)

// Synthesizer produces an answer grounded in the retrieved passages.
type Synthesizer interface {
	// Answer generates an answer to query from the given passages, ordered
	// most relevant first. History carries recent conversation turns for
	// follow-up questions and may be empty.
	Answer(ctx context.Context, passages []string, query string, history []session.Message) (string, error)
}
