package middleware

import "github.com/aretw0/flowcanvas/pkg/ports"

// Middleware allows wrapping a ConversationReader to add behavior.
type Middleware func(ports.ConversationReader) ports.ConversationReader

// Chain applies mws to next. The first middleware is the outermost.
func Chain(next ports.ConversationReader, mws ...Middleware) ports.ConversationReader {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
