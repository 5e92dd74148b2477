package http

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/jobrunner/geopipe/internal/application"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
)

// pipelineParams are the query parameters of the pipeline endpoints.
type pipelineParams struct {
	Format     domain.Format
	Topology   domain.Topology
	SRID       *int
	Output     domain.Format
	DocumentID string
	Persist    bool
}

// handleValidate runs the request body through the validating pipeline.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	params, err := s.parsePipelineParams(r, false)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, ok := s.process(w, r, params)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":       true,
		"document_id": result.DocumentID,
		"shapes":      formatShapes(result.Shapes),
		"count":       len(result.Shapes),
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// handleBuild runs the request body through the pipeline and returns the
// built shapes re-encoded.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	params, err := s.parsePipelineParams(r, true)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, ok := s.process(w, r, params)
	if !ok {
		return
	}

	shapes := make([]map[string]interface{}, len(result.Shapes))
	for i, shape := range result.Shapes {
		shapes[i] = map[string]interface{}{
			"type": shape.Type.String(),
			"srid": shape.SRID,
		}
		if i < len(result.Encoded) {
			shapes[i]["data"] = encodedValue(params.Output, result.Encoded[i])
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": result.DocumentID,
		"format":      params.Output,
		"shapes":      shapes,
		"count":       len(shapes),
		"persisted":   params.Persist,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// process reads the body and calls the document service. It writes the
// error response itself and reports whether the caller should continue.
func (s *Server) process(w http.ResponseWriter, r *http.Request, params *pipelineParams) (*domain.ProcessResult, bool) {
	body := r.Body
	if s.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}
	if len(payload) == 0 {
		s.writeError(w, http.StatusBadRequest, "Request body is empty")
		return nil, false
	}

	result, err := s.services.Documents.Process(r.Context(), domain.ProcessRequest{
		DocumentID: params.DocumentID,
		Payload:    payload,
		Format:     params.Format,
		Topology:   params.Topology,
		SRID:       params.SRID,
		Output:     params.Output,
		Persist:    params.Persist,
	})
	if err != nil {
		s.handleProcessError(w, err)
		return nil, false
	}
	return result, true
}

// parsePipelineParams parses the query parameters of a pipeline request.
// The input format falls back to the request's content type.
func (s *Server) parsePipelineParams(r *http.Request, build bool) (*pipelineParams, error) {
	q := r.URL.Query()
	params := &pipelineParams{
		Topology:   s.pipeline.TopologyValue(),
		SRID:       s.pipeline.SRIDOverride(),
		DocumentID: q.Get("id"),
	}

	if f := q.Get("format"); f != "" {
		format, ok := domain.ParseFormat(f)
		if !ok {
			return nil, errors.Newf("unsupported format %q", f)
		}
		params.Format = format
	} else {
		format, ok := formatFromContentType(r.Header.Get("Content-Type"))
		if !ok {
			return nil, errors.New("format required: use the format parameter or a known content type")
		}
		params.Format = format
	}

	if kind := q.Get("kind"); kind != "" {
		topology, ok := config.ParseTopology(kind)
		if !ok {
			return nil, errors.Newf("invalid kind %q: use geography or geometry", kind)
		}
		params.Topology = topology
	}

	if srid := q.Get("srid"); srid != "" {
		v, err := strconv.Atoi(srid)
		if err != nil || v <= 0 {
			return nil, errors.New("invalid srid parameter")
		}
		params.SRID = domain.SRID(v)
	}

	if !build {
		return params, nil
	}

	params.Output = domain.Format(s.pipeline.OutputFormat)
	if o := q.Get("output"); o != "" {
		output, ok := domain.ParseFormat(o)
		if !ok {
			return nil, errors.Newf("unsupported output format %q", o)
		}
		params.Output = output
	}
	if params.Output == "" {
		params.Output = domain.FormatWKT
	}

	if p := q.Get("persist"); p != "" {
		v, err := strconv.ParseBool(p)
		if err != nil {
			return nil, errors.New("invalid persist parameter")
		}
		params.Persist = v
	}

	return params, nil
}

func formatFromContentType(contentType string) (domain.Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "application/geo+json", "application/json":
		return domain.FormatGeoJSON, true
	case "text/plain", "text/wkt":
		return domain.FormatWKT, true
	case "application/octet-stream", "application/wkb":
		return domain.FormatWKB, true
	}
	return "", false
}

// encodedValue returns an encoded shape in a JSON friendly form. GeoJSON is
// embedded as is and WKB is base64 encoded by encoding/json.
func encodedValue(format domain.Format, data []byte) interface{} {
	switch format {
	case domain.FormatGeoJSON:
		return json.RawMessage(data)
	case domain.FormatWKB:
		return data
	default:
		return string(data)
	}
}

// handleProcessError maps pipeline errors to HTTP responses.
func (s *Server) handleProcessError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	if errors.Is(err, domain.ErrUnsupported) {
		s.writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	if errors.Is(err, domain.ErrInvalidInput) {
		resp := map[string]interface{}{
			"valid":   false,
			"error":   http.StatusText(http.StatusUnprocessableEntity),
			"message": err.Error(),
		}
		var docErr *domain.DocumentError
		if errors.As(err, &docErr) {
			resp["stage"] = docErr.Stage
		}
		if kind, ok := application.FormatErrorKind(err); ok {
			resp["kind"] = kind.String()
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	if errors.Is(err, domain.ErrUnavailable) {
		s.writeError(w, http.StatusServiceUnavailable, "Shape store not available")
		return
	}

	if errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusServiceUnavailable, "Request canceled")
		return
	}

	s.logger.Error("pipeline error", "error", err)
	s.writeError(w, http.StatusInternalServerError, "Processing failed")
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.services.Health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":           boolToStatus(details.Healthy),
		"ready":            details.Ready,
		"documents_loaded": details.DocumentsLoaded,
		"documents_valid":  details.DocumentsValid,
		"components":       details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.services.Health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.services.Health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleListDocuments returns all catalog documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.services.Catalog.ListDocuments(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	response := make([]map[string]interface{}, len(documents))
	for i := range documents {
		response[i] = formatDocument(&documents[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": response,
		"count":     len(documents),
	})
}

// handleGetDocument returns a specific document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	doc, err := s.services.Catalog.GetDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			s.writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get document")
		return
	}

	s.writeJSON(w, http.StatusOK, formatDocument(doc))
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	if s.services.Sync == nil {
		s.writeError(w, http.StatusNotFound, "Sync service not available")
		return
	}

	result, err := s.services.Sync.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			retry := int(application.DefaultSyncCooldown.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in "+strconv.Itoa(retry)+" seconds.")
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func formatShapes(shapes []domain.ShapeSummary) []map[string]interface{} {
	out := make([]map[string]interface{}, len(shapes))
	for i, shape := range shapes {
		out[i] = map[string]interface{}{
			"type": shape.Type.String(),
			"srid": shape.SRID,
		}
	}
	return out
}

// formatDocument formats a catalog document for JSON output.
func formatDocument(doc *domain.Document) map[string]interface{} {
	out := map[string]interface{}{
		"id":           doc.ID,
		"key":          doc.Key,
		"format":       doc.Format,
		"topology":     doc.Topology.String(),
		"size":         doc.Size,
		"status":       doc.Status,
		"valid":        doc.IsValid(),
		"shape_count":  doc.ShapeCount(),
		"shapes":       formatShapes(doc.Shapes),
		"processed_at": doc.ProcessedAt,
	}
	if doc.Error != "" {
		out["error"] = doc.Error
	}
	if doc.ErrorKind != "" {
		out["error_kind"] = doc.ErrorKind
	}
	return out
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
