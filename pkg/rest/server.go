package rest

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"k8s.io/apimachinery/pkg/util/rand"
)

// REST server running sessions of an online algorithm, each addressed by
// the id returned from start
type AlgorithmServer struct {
	BaseServer
	alg online.Algorithm

	// serialize access to the sessions
	mutex    sync.Mutex
	sessions map[string]online.Session
}

// create a REST server for an algorithm
func NewAlgorithmServer(alg online.Algorithm) *AlgorithmServer {
	server := &AlgorithmServer{
		BaseServer: *NewBaseServer(),
		alg:        alg,
		sessions:   make(map[string]online.Session),
	}

	server.router.POST("/"+StartVerb, server.start)
	server.router.POST("/"+SessionsPath+"/:id/"+NextVerb, server.next)
	server.router.POST("/"+SessionsPath+"/:id/"+StopVerb, server.stop)

	return server
}

// Number of open sessions
func (server *AlgorithmServer) NumSessions() int {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return len(server.sessions)
}

// Handlers for REST API calls

func (server *AlgorithmServer) start(c *gin.Context) {
	var req StartRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	model, err := core.FromSpec(&req.Model)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, ErrorReply{Message: err.Error()})
		return
	}
	session, resp, err := server.alg.Start(c.Request.Context(), model, req.Offline, req.Window)
	if err != nil {
		c.IndentedJSON(statusOf(err), ErrorReply{Message: err.Error()})
		return
	}

	server.mutex.Lock()
	id := rand.String(sessionIDLength)
	for server.sessions[id] != nil {
		id = rand.String(sessionIDLength)
	}
	server.sessions[id] = session
	server.mutex.Unlock()

	logger.Log.Infow("session started", "session", id, "offlineSlots", len(req.Offline), "window", req.Window)
	c.IndentedJSON(http.StatusOK, StartReply{SessionID: id, Response: resp})
}

func (server *AlgorithmServer) next(c *gin.Context) {
	id := c.Param("id")
	session := server.session(id)
	if session == nil {
		c.IndentedJSON(http.StatusNotFound, ErrorReply{Message: "session " + id + " not found"})
		return
	}
	var req NextRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	resp, err := session.Next(c.Request.Context(), req.Slice)
	if err != nil {
		c.IndentedJSON(statusOf(err), ErrorReply{Message: err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, resp)
}

func (server *AlgorithmServer) stop(c *gin.Context) {
	id := c.Param("id")
	server.mutex.Lock()
	session := server.sessions[id]
	delete(server.sessions, id)
	server.mutex.Unlock()

	if session == nil {
		c.IndentedJSON(http.StatusNotFound, ErrorReply{Message: "session " + id + " not found"})
		return
	}
	if err := session.Stop(c.Request.Context()); err != nil {
		c.IndentedJSON(statusOf(err), ErrorReply{Message: err.Error()})
		return
	}
	logger.Log.Infow("session stopped", "session", id)
	c.IndentedJSON(http.StatusOK, gin.H{"sessionId": id})
}

func (server *AlgorithmServer) session(id string) online.Session {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.sessions[id]
}

func statusOf(err error) int {
	if errors.Is(err, core.ErrConfiguration) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
