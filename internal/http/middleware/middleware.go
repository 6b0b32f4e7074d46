package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"calimara/internal/auth"
	basichttp "calimara/internal/http"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

const CtxUserID = "user_id"
const CtxIsAdmin = "is_admin"
const CtxIsModerator = "is_moderator"

func extractToken(c *gin.Context, cookieName string) string {
	hdr := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return strings.TrimSpace(hdr[7:])
	}
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil {
			return ck
		}
	}
	return ""
}

func RequireAuth(secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c, cookieName)
		if tokenStr == "" {
			basichttp.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
			c.Abort()
			return
		}
		claims, err := auth.Parse(secret, tokenStr)
		if err != nil {
			basichttp.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			c.Abort()
			return
		}
		c.Set(CtxUserID, claims.Sub)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Set(CtxIsModerator, claims.IsModerator)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present but lets
// anonymous requests through. Used by comment creation, where guests may
// comment with just a name and email.
func OptionalAuth(secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := extractToken(c, cookieName); tokenStr != "" {
			if claims, err := auth.Parse(secret, tokenStr); err == nil {
				c.Set(CtxUserID, claims.Sub)
				c.Set(CtxIsAdmin, claims.IsAdmin)
				c.Set(CtxIsModerator, claims.IsModerator)
			}
		}
		c.Next()
	}
}

func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(CtxIsAdmin)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func IsModerator(c *gin.Context) bool {
	if IsAdmin(c) {
		return true
	}
	v, ok := c.Get(CtxIsModerator)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// UserID returns the authenticated user's ID, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RequireModerator gates the moderation surface; admins always pass.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsModerator(c) {
			basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "moderation access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, Accept, Origin")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS,HEAD")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Rate limiting
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimitStore struct {
	visitors map[string]*visitor
	mu       sync.Mutex
}

func (s *rateLimitStore) addVisitor(ip string, r rate.Limit, b int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		s.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (s *rateLimitStore) cleanup() {
	for {
		time.Sleep(time.Minute)
		s.mu.Lock()
		for ip, v := range s.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(s.visitors, ip)
			}
		}
		s.mu.Unlock()
	}
}

var store = &rateLimitStore{
	visitors: make(map[string]*visitor),
}

func init() {
	go store.cleanup()
}

func RateLimit(rps int, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := store.addVisitor(c.ClientIP(), rate.Limit(rps), burst)
		if !limiter.Allow() {
			basichttp.Fail(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
