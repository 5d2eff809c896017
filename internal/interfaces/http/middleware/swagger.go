package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerConfig guards the API documentation routes. An empty allow list
// lets every client in.
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // single addresses or CIDR prefixes
}

// SwaggerProtection answers 404 while the docs are disabled and 403 to
// clients outside the allow list. Entries that do not parse are skipped.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	var allowed []netip.Prefix
	for _, entry := range cfg.AllowedIPs {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			allowed = append(allowed, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			allowed = append(allowed, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound,
				"API documentation is not available",
				getRequestID(c),
			))
			return
		}
		if len(cfg.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"Access to API documentation is restricted",
				getRequestID(c),
			))
			return
		}
		c.Next()
	}
}

func ipAllowed(clientIP string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
