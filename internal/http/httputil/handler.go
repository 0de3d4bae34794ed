package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is one route module of the API. Root names its prefix under
// api/v1 ("/quote", "/pools", "/liquidity") and SetRoutes attaches endpoints
// to the public, private and admin groups; a module uses only the groups it
// needs.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
