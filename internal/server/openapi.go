package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Code Battle API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Admin API for the Code Battle match coordinator. Gameplay happens over the /ws WebSocket.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies. Optional dependencies report degraded without failing the check.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Match gateway")
	getWS.SetDescription("Upgrades to a WebSocket. Messages are JSON envelopes {type, ref, ...}; " +
		"intents are join-room, leave-room, code-change, start-match, stop-match, run-code and submit-code. " +
		"Pass the display name as the username query parameter.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

	// POST /api/rooms
	createRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	createRoom.SetSummary("Create room")
	createRoom.SetDescription("Creates an empty room. The first connection to join it becomes its creator.")
	createRoom.AddReqStructure(CreateRoomRequest{})
	createRoom.AddRespStructure(game.RoomState{}, openapi.WithHTTPStatus(http.StatusCreated))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createRoom)

	// GET /api/rooms
	listRooms, _ := r.NewOperationContext(http.MethodGet, "/api/rooms")
	listRooms.SetSummary("List rooms")
	listRooms.SetDescription("Returns a summary of every active room in creation order.")
	listRooms.AddRespStructure([]game.RoomSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listRooms)

	// GET /api/rooms/{roomID}
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomID}")
	getRoom.SetSummary("Get room")
	getRoom.SetDescription("Returns players, code buffers and match state. Hidden test cases are never included.")
	getRoom.AddReqStructure(RoomPath{})
	getRoom.AddRespStructure(game.RoomState{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoom)

	// GET /api/languages
	getLanguages, _ := r.NewOperationContext(http.MethodGet, "/api/languages")
	getLanguages.SetSummary("List languages")
	getLanguages.SetDescription("Proxies the runtimes list of the code runner.")
	getLanguages.AddRespStructure([]executor.Runtime{}, openapi.WithHTTPStatus(http.StatusOK))
	getLanguages.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(getLanguages)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
