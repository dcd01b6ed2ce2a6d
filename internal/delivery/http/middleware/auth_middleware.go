package middleware

import (
	"context"
	"net/http"
	"strings"

	"lunar-cancer-care/config"
	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/pkg/jwt"
	"lunar-cancer-care/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type contextKey string

const CallerKey contextKey = "caller"

// RevokedTokenKeyPrefix prefixes the Redis keys of revoked token ids.
const RevokedTokenKeyPrefix = "revoked_token:"

// Caller headers honoured when token authentication is disabled.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
	HeaderStaffID  = "X-Staff-Id"
)

type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	redisClient *redis.Client
	config      config.AuthConfig
	log         *logrus.Logger
}

// NewAuthMiddleware builds the middleware that attaches an entity.Caller to every
// request. jwtService and redisClient may be nil when cfg.Enabled is false.
func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client, cfg config.AuthConfig, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		redisClient: redisClient,
		config:      cfg,
		log:         log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled {
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), m.callerFromHeaders(r))))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		revoked, err := m.redisClient.Exists(r.Context(), RevokedTokenKeyPrefix+claims.TokenID).Result()
		if err != nil {
			m.log.Errorf("Failed to check token revocation: %+v", err)
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if revoked > 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		caller := entity.Caller{
			UserID:  claims.UserID,
			Role:    claims.Role,
			StaffID: claims.StaffID,
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (m *AuthMiddleware) callerFromHeaders(r *http.Request) entity.Caller {
	role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
	if role == "" {
		role = m.config.DefaultRole
	}
	return entity.Caller{
		UserID:  strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Role:    role,
		StaffID: strings.TrimSpace(r.Header.Get(HeaderStaffID)),
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller entity.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCallerFromContext extracts the caller set by AuthMiddleware
func GetCallerFromContext(ctx context.Context) (entity.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(entity.Caller)
	return caller, ok
}

// CallerFromContext is GetCallerFromContext for handlers behind Authenticate;
// it returns the zero Caller, which holds no permissions, when none is set.
func CallerFromContext(ctx context.Context) entity.Caller {
	caller, _ := GetCallerFromContext(ctx)
	return caller
}
