package rest

import (
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
)

// Body of a start call
type StartRequest struct {
	Model   config.ModelSpec `json:"model"`
	Offline [][]float64      `json:"offline"`
	Window  int              `json:"window"`
}

// Reply to a start call
type StartReply struct {
	SessionID string               `json:"sessionId"`
	Response  online.StartResponse `json:"response"`
}

// Body of a next call
type NextRequest struct {
	Slice loads.OnlineSlice `json:"slice"`
}

// Body of an error reply
type ErrorReply struct {
	Message string `json:"message"`
}
