package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/api/transport"
	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
)

// PrincipalResolver maps a verified user id to the caller's principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (*domain.Principal, error)
}

// RejectionCounter is notified of every refused request. May be nil.
type RejectionCounter interface {
	AuthRejected(reason string)
}

// claims that may carry the user id, in lookup order.
var userIDClaims = []string{"id", "user_id", "sub"}

// JWTAuth verifies the bearer token (HMAC only), resolves the principal and
// attaches it to the request. Any failure ends the request with 401.
func JWTAuth(secret string, resolver PrincipalResolver, adapter *httpcontext.Adapter, rejections RejectionCounter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	key := []byte(secret)

	reject := func(ctx *fasthttp.RequestCtx, reason string, err *domain.Error) {
		if rejections != nil {
			rejections.AuthRejected(reason)
		}
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(http.StatusUnauthorized)
		ctx.SetBody(transport.Marshal(transport.NewError(string(err.Code), err.Message, nil)))
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, "missing_token", domain.ErrUnauthenticated)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				logger.Debug("invalid jwt token", zap.String("request_id", httpcontext.RequestID(ctx)), zap.Error(err))
				reject(ctx, "invalid_token", domain.ErrInvalidToken)
				return
			}

			userID := userIDFromClaims(token.Claims)
			if userID == "" {
				reject(ctx, "invalid_token", domain.ErrInvalidToken)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			principal, err := resolver.ResolvePrincipal(stdCtx, userID)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					reject(ctx, "unknown_user", domain.ErrUnknownPrincipal)
					return
				}
				logger.Error("principal resolution failed",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.String("user_id", userID),
					zap.Error(err))
				reject(ctx, "resolver_error", domain.ErrInvalidToken)
				return
			}

			httpcontext.SetPrincipal(ctx, principal)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func userIDFromClaims(claims jwt.Claims) string {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	for _, name := range userIDClaims {
		if id, ok := mapClaims[name].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
