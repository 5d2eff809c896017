package handler

import (
	"github.com/erp/rental/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerSpecPath is where the UI fetches the generated spec from
const SwaggerSpecPath = "/swagger-spec/swagger.json"

// MountSwagger serves the swagger UI under /swagger/ and the spec file at
// SwaggerSpecPath, both behind SwaggerProtection. specFile is the
// swagger.json that `swag init -g cmd/server/main.go -o docs` writes.
func MountSwagger(engine gin.IRoutes, cfg middleware.SwaggerConfig, specFile string) {
	guard := middleware.SwaggerProtection(cfg)
	engine.GET(SwaggerSpecPath, guard, func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.File(specFile)
	})
	engine.GET("/swagger/*any", guard, ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL(SwaggerSpecPath),
		ginSwagger.DocExpansion("none"),
	))
}
