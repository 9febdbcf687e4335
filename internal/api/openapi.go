package api

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Turbo Catan API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Balanced hex board generation for any number of players.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the generation log.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /
	getIndex, _ := r.NewOperationContext(http.MethodGet, "/")
	getIndex.SetSummary("Board page")
	getIndex.SetDescription("HTML page with a generation form and, when players is set, the rendered board.")
	getIndex.AddReqStructure(BoardQuery{})
	getIndex.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/html"))
	_ = r.AddOperation(getIndex)

	// GET /api/v1/board
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/v1/board")
	getBoard.SetSummary("Generate board")
	getBoard.SetDescription("Generates a balanced board and returns its tiles with the seed that reproduces it.")
	getBoard.AddReqStructure(BoardQuery{})
	getBoard.AddRespStructure(BoardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(getBoard)

	// GET /api/v1/board.png
	getBoardPNG, _ := r.NewOperationContext(http.MethodGet, "/api/v1/board.png")
	getBoardPNG.SetSummary("Render board")
	getBoardPNG.SetDescription("Generates a board and returns it as a PNG. The seed is in the X-Board-Seed header.")
	getBoardPNG.AddReqStructure(BoardQuery{})
	getBoardPNG.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	getBoardPNG.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getBoardPNG.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	getBoardPNG.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(getBoardPNG)

	// GET /api/v1/board/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/v1/board/qr")
	getQR.SetSummary("Share code")
	getQR.SetDescription("Returns a QR code PNG linking to the page that reproduces the board.")
	getQR.AddReqStructure(BoardQuery{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(getQR)

	// GET /api/v1/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/v1/stats")
	getStats.SetSummary("Generation statistics")
	getStats.SetDescription("Aggregates over the generation log plus the most recent generations.")
	getStats.AddRespStructure(StatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

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
