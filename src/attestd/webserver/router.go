package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(r *gin.Engine, opts Options, svc Attester) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{opts.FrontendURL},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
	}))

	healthH := Health{}
	verifyH := NewVerify(svc, opts.Production)
	signerH := Signer{address: opts.SignerAddress}

	r.GET("/health", healthH.Get)

	api := r.Group("/api")
	if opts.Limiter != nil {
		api.Use(RateLimitMiddleware(opts.Limiter, opts.RateLimit, opts.RateWindow))
	}
	{
		api.POST("/verify", verifyH.Create)
		api.GET("/signer", signerH.Get)
	}
}
