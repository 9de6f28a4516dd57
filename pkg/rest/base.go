package rest

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Base REST server
type BaseServer struct {
	router *gin.Engine
}

func NewBaseServer() *BaseServer {
	server := &BaseServer{
		router: gin.Default(),
	}
	server.router.GET("/"+HealthVerb, func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return server
}

// Handler serving the REST API
func (server *BaseServer) Handler() http.Handler {
	return server.router
}

// Address the server listens on, taken from the environment
func Address() string {
	var host, port string
	if host = os.Getenv(RestHostEnvName); host == "" {
		host = DefaultRestHost
	}
	if port = os.Getenv(RestPortEnvName); port == "" {
		port = DefaultRestPort
	}
	return host + ":" + port
}

// start server
func (server *BaseServer) Run() error {
	return server.router.Run(Address())
}
