package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is mounted by HTTPService under /api/v1/<Root()>, with
// separate groups for public, private and admin routes.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
