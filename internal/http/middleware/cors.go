package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:80",
	"http://localhost:3000",
	"http://localhost:5174",
	"http://localhost:5173",
	"http://127.0.0.1:80",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5174",
	"http://127.0.0.1:5173",
}

// CORS allows origins, or the local dev origins when origins is empty. A
// single "*" allows any origin without credentials. Browser extension
// origins (chrome-extension://, moz-extension://, ...) are accepted.
func CORS(origins ...string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:           []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:           []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id", "X-Trace-Id", HeaderAdminToken},
		ExposeHeaders:          []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials:       true,
		AllowBrowserExtensions: true,
	}
	switch {
	case len(origins) == 1 && origins[0] == "*":
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	default:
		cfg.AllowOrigins = defaultOrigins
	}
	return cors.New(cfg)
}

var originSchemes = []string{
	"http://",
	"https://",
	"chrome-extension://",
	"moz-extension://",
	"safari-extension://",
	"ms-browser-extension://",
}

// ValidateOrigins reports the first origin CORS would refuse to build with.
func ValidateOrigins(origins []string) error {
	if len(origins) == 1 && origins[0] == "*" {
		return nil
	}
	for _, o := range origins {
		ok := false
		for _, scheme := range originSchemes {
			if strings.HasPrefix(o, scheme) && len(o) > len(scheme) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("invalid CORS origin %q: must be \"*\" or start with http://, https:// or a browser extension scheme", o)
		}
	}
	return nil
}
