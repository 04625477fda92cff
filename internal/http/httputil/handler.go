package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is one mounted route tree. Root names the path segment under
// /api/v1; SetRoutes receives the public group, the JWT-guarded group, and
// the admin group rooted there.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
