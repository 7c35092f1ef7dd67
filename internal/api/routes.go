package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(), recovery())
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/qr", h.qr)
		api.POST("/certificates/zip", h.generateZip)
		api.GET("/certificate-sets", h.listSets)
		api.GET("/certificate-sets/:id/generate_zip", h.generateSetZip)
		api.GET("/get-certificate/:uuid", h.getCertificate)
	}
}
