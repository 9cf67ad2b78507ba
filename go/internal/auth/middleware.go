package auth

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GinMiddleware rejects requests without a valid bearer token and stores
// the user id on the request context.
func GinMiddleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.Verify(BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": err.Error(),
			})
			return
		}
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// HTTPMiddleware authenticates plain handlers. Browsers cannot set headers
// on a websocket upgrade, so a token query parameter is accepted too.
func HTTPMiddleware(v *Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			raw = r.URL.Query().Get("token")
		}
		userID, err := v.Verify(raw)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected unauthenticated request")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// NewInterceptor authenticates connect calls from the Authorization header.
func NewInterceptor(v *Verifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}
			userID, err := v.Verify(BearerToken(req.Header().Get("Authorization")))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(WithUserID(ctx, userID), req)
		}
	}
}

// NewClientInterceptor attaches a static bearer token to outgoing calls.
func NewClientInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
