package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// distinct key type so it cannot collide with the auth ctxKey values
type reqIDKeyType struct{}

var requestIDKey reqIDKeyType

func newReqID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequestID tags every request with an ID, exposed on the X-Request-Id
// header and the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := newReqID()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
