package http

import (
	"context"
	"net/http"
)

// storeContext bounds a handler's store work with the standard timeout.
func storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}
