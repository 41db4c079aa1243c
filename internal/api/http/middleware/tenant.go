package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CtxTenantSubdomain = "TenantSubdomain"

// TenantSubdomain records the first label of hosts like acme.erp.example.com.
// Bare hosts, localhost and IP addresses carry no tenant.
func TenantSubdomain(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("tenant")
	return func(c *gin.Context) {
		if sub := subdomain(c.Request.Host); sub != "" {
			c.Set(CtxTenantSubdomain, sub)
			logger.Debug("tenant subdomain detected", zap.String("subdomain", sub))
		}
		c.Next()
	}
}

func subdomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
