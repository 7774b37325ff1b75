package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mediarag/pkg/query"
	"mediarag/pkg/youtube"
)

// ---- Request bodies ---- //

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type documentQueryRequest struct {
	Query        string `json:"query"`
	DocumentName string `json:"document_name"`
	K            int    `json:"k"`
}

type smartQueryRequest struct {
	Query    string `json:"query"`
	K        int    `json:"k"`
	Strategy string `json:"strategy"`
}

type videoUploadRequest struct {
	VideoURL         string `json:"video_url"`
	ManualTranscript string `json:"manual_transcript"`
	// UseFallback defaults to true when the field is absent.
	UseFallback *bool `json:"use_fallback"`
}

type videoQueryRequest struct {
	Query            string `json:"query"`
	VideoURL         string `json:"video_url"`
	K                int    `json:"k"`
	ManualTranscript string `json:"manual_transcript"`
}

type smartQueryAllRequest struct {
	Query       string `json:"query"`
	K           int    `json:"k"`
	Strategy    string `json:"strategy"`
	ContentType string `json:"content_type"`
}

// ---- Response bodies ---- //

type smartQueryResponse struct {
	Answer        string             `json:"answer"`
	StrategyUsed  string             `json:"strategy_used"`
	ChunksUsed    int                `json:"chunks_used"`
	ContentType   string             `json:"content_type,omitempty"`
	PrimarySource string             `json:"primary_source,omitempty"`
	SourceType    string             `json:"source_type,omitempty"`
	SourcesUsed   []string           `json:"sources_used,omitempty"`
	SourceScores  map[string]float64 `json:"source_scores,omitempty"`
}

type uploadSummary struct {
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
}

// videoFailure is the structured body YouTube routes return instead of an
// HTTP error when transcript retrieval or processing fails. Callers branch
// on the success field, not the transport status.
type videoFailure struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Details   string   `json:"details"`
	VideoID   string   `json:"video_id,omitempty"`
	Solutions []string `json:"solutions,omitempty"`
}

// ---- Health and diagnostics ---- //

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "PDF and YouTube Video Query API",
		"status":  "healthy",
	})
}

func (s *Server) handleTestLLM(c echo.Context) error {
	if s.llm == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"error":  "no completion client configured",
			"status": "failed",
		})
	}

	reply, err := s.llm.Ping(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"error":  fmt.Sprintf("completion service connection failed: %v", err),
			"status": "failed",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": reply, "status": "success"})
}

// ---- PDF routes ---- //

func (s *Server) handleUploadPDF(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form with a files field is required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}

	summaries := make([]uploadSummary, 0, len(files))
	for _, header := range files {
		if contentType := header.Header.Get("Content-Type"); contentType != "" && contentType != "application/pdf" {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type. Only PDF files are allowed.")
		}

		file, err := header.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		summary, err := s.pipeline.IngestPDF(c.Request().Context(), file, header.Size, header.Filename)
		file.Close()
		if err != nil {
			s.logger.Error("pdf ingestion failed",
				zap.String("filename", header.Filename), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		summaries = append(summaries, uploadSummary{
			Filename:  header.Filename,
			NumChunks: summary.ChunkCount,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "PDFs processed and stored successfully",
		"summary": summaries,
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	answer, err := s.engine.Ask(c.Request().Context(), req.Query, req.K)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"answer": answer})
}

func (s *Server) handleListDocuments(c echo.Context) error {
	documents, err := s.engine.Documents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": documents, "count": len(documents)})
}

func (s *Server) handleQueryDocument(c echo.Context) error {
	var req documentQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" || req.DocumentName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query and document_name fields are required")
	}

	result, err := s.engine.AskDocument(c.Request().Context(), req.Query, req.DocumentName, req.K)
	if err != nil {
		s.logger.Error("document query failed",
			zap.String("document", req.DocumentName), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if result.ChunksFound == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"answer":           fmt.Sprintf("No relevant information found in document '%s' for your query.", req.DocumentName),
			"document_queried": req.DocumentName,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"answer":           result.Answer,
		"document_queried": req.DocumentName,
		"chunks_found":     result.ChunksFound,
	})
}

func (s *Server) handleSmartQuery(c echo.Context) error {
	var req smartQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if req.Strategy == "" {
		req.Strategy = "best_match"
	}

	result, err := s.engine.AskSmart(c.Request().Context(), req.Query, req.K, req.Strategy)
	if err != nil {
		s.logger.Error("smart query failed", zap.String("strategy", req.Strategy), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(result.Retrieval.Chunks) == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"answer":        "No relevant information found for your query.",
			"strategy_used": req.Strategy,
		})
	}

	return c.JSON(http.StatusOK, smartQueryResponse{
		Answer:        result.Answer,
		StrategyUsed:  result.Retrieval.StrategyUsed,
		ChunksUsed:    len(result.Retrieval.Chunks),
		PrimarySource: result.Retrieval.PrimarySource,
		SourcesUsed:   result.Retrieval.SourcesUsed,
		SourceScores:  result.Retrieval.SourceScores,
	})
}

// ---- YouTube routes ---- //

func (s *Server) handleUploadYouTube(c echo.Context) error {
	var req videoUploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	videoID, err := youtube.ExtractVideoID(req.VideoURL)
	if err != nil {
		return c.JSON(http.StatusOK, videoFailure{
			Error:   "processing_failed",
			Message: "Failed to process YouTube video",
			Details: err.Error(),
		})
	}

	useFallback := req.UseFallback == nil || *req.UseFallback
	result, err := s.engine.UploadVideo(c.Request().Context(), req.VideoURL, req.ManualTranscript, useFallback)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptUnavailable) {
			return c.JSON(http.StatusOK, videoFailure{
				Error:   "transcript_blocked",
				Message: "YouTube transcript retrieval failed",
				Details: err.Error(),
				VideoID: videoID,
				Solutions: []string{
					"Provide manual transcript text",
					"Use a proxy service",
					"Process video locally",
				},
			})
		}
		s.logger.Error("youtube upload failed", zap.String("video_id", videoID), zap.Error(err))
		return c.JSON(http.StatusOK, videoFailure{
			Error:   "processing_failed",
			Message: "Failed to process YouTube video",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"message":           "YouTube transcript processed successfully",
		"video_id":          result.VideoID,
		"source":            result.Source,
		"num_chunks":        result.ChunkCount,
		"transcript_method": result.TranscriptMethod,
		"transcript_length": result.TranscriptLength,
	})
}

func (s *Server) handleQueryYouTube(c echo.Context) error {
	var req videoQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	result, err := s.engine.AskVideo(c.Request().Context(), req.Query, req.VideoURL, req.K, req.ManualTranscript)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptUnavailable) {
			return c.JSON(http.StatusOK, videoFailure{
				Error:   "transcript_blocked",
				Message: "YouTube transcript blocked and no manual transcript provided",
				Details: err.Error(),
				Solutions: []string{
					"Provide manual transcript",
					"Upload video first",
					"Use proxy service",
				},
			})
		}
		s.logger.Error("youtube query failed", zap.Error(err))
		return c.JSON(http.StatusOK, videoFailure{
			Error:   "query_failed",
			Message: "Failed to query YouTube video",
			Details: err.Error(),
		})
	}

	body := echo.Map{
		"success":  true,
		"answer":   result.Answer,
		"video_id": result.VideoID,
		"source":   result.Origin,
	}
	if result.Origin == "database" {
		body["chunks_found"] = result.ChunksUsed
	} else {
		body["chunks_used"] = result.ChunksUsed
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) handleListVideos(c echo.Context) error {
	videos, err := s.engine.Videos(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"videos": videos, "count": len(videos)})
}

// handleYouTubeStatus probes transcript retrieval with a well-known video so
// operators can tell whether the deployment environment is blocked.
func (s *Server) handleYouTubeStatus(c echo.Context) error {
	const probeVideoID = "dQw4w9WgXcQ"

	if s.transcripts == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "error_other",
			"message": "no transcript client configured",
		})
	}

	if _, err := s.transcripts.Fetch(c.Request().Context(), probeVideoID); err != nil {
		detail := err.Error()
		lower := strings.ToLower(detail)
		if strings.Contains(lower, "cloud provider") || strings.Contains(lower, "ip") {
			return c.JSON(http.StatusOK, echo.Map{
				"status":      "blocked_cloud",
				"message":     "YouTube transcript retrieval blocked, likely a cloud provider IP",
				"environment": "cloud_deployment",
				"solutions": []string{
					"Use manual transcript upload",
					"Implement proxy service",
					"Process videos locally",
				},
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":        "error_other",
			"message":       "YouTube transcript retrieval failed for a non-network reason",
			"error_details": detail,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      "accessible",
		"message":     "YouTube transcript API is working",
		"environment": "local_or_compatible",
	})
}

// ---- Cross-content routes ---- //

func (s *Server) handleSmartQueryAll(c echo.Context) error {
	var req smartQueryAllRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if req.Strategy == "" {
		req.Strategy = "best_match"
	}
	if req.ContentType == "" {
		req.ContentType = "all"
	}

	result, err := s.engine.AskAll(c.Request().Context(), req.Query, req.K, req.Strategy, req.ContentType)
	if err != nil {
		if errors.Is(err, query.ErrNoContent) {
			return c.JSON(http.StatusOK, echo.Map{
				"answer":        fmt.Sprintf("No %s content found in the database.", req.ContentType),
				"strategy_used": req.Strategy,
				"content_type":  req.ContentType,
			})
		}
		s.logger.Error("smart query all failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(result.Retrieval.Chunks) == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"answer":        fmt.Sprintf("No relevant information found in %s content for your query.", req.ContentType),
			"strategy_used": req.Strategy,
			"content_type":  req.ContentType,
		})
	}

	resp := smartQueryResponse{
		Answer:        result.Answer,
		StrategyUsed:  result.Retrieval.StrategyUsed,
		ChunksUsed:    len(result.Retrieval.Chunks),
		ContentType:   req.ContentType,
		PrimarySource: result.Retrieval.PrimarySource,
		SourcesUsed:   result.Retrieval.SourcesUsed,
		SourceScores:  result.Retrieval.SourceScores,
	}
	if resp.PrimarySource != "" {
		resp.SourceType = sourceTypeLabel(resp.PrimarySource)
	}
	return c.JSON(http.StatusOK, resp)
}

func sourceTypeLabel(source string) string {
	if youtube.IsVideoSource(source) {
		return "video"
	}
	return "pdf"
}

func (s *Server) handleContentSummary(c echo.Context) error {
	summary, err := s.engine.Summary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
