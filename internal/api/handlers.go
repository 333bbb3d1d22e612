package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rtlscribe/internal/export"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
	"rtlscribe/internal/pipeline"
	"rtlscribe/internal/storage"
	"rtlscribe/internal/stt"
	"rtlscribe/internal/utils"
)

// Options carries the request defaults taken from configuration
type Options struct {
	Provider        string
	Credentials     int
	Language        string
	Prompt          string
	RefineByDefault bool
	MaxAudioBytes   int64
	Metrics         *metrics.Metrics
}

// Handler serves the transcription and export endpoints
type Handler struct {
	pipeline *pipeline.Pipeline
	pdf      *export.PDFExporter
	opts     Options
	logger   *log.Logger
}

func NewHandler(p *pipeline.Pipeline, pdf *export.PDFExporter, opts Options) *Handler {
	if opts.MaxAudioBytes <= 0 {
		opts.MaxAudioBytes = stt.DefaultMaxAudioBytes
	}
	return &Handler{
		pipeline: p,
		pdf:      pdf,
		opts:     opts,
		logger:   logging.For("api"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	api := r.Group("/api")
	{
		api.POST("/transcribe", h.transcribe)
		api.POST("/export/pdf", h.exportPDF)
		api.POST("/export/txt", h.exportTXT)
	}
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":      "ok",
		"service":     "rtlscribe",
		"provider":    h.opts.Provider,
		"credentials": h.opts.Credentials,
		"refine":      h.pipeline.CanRefine(),
	})
}

// transcribe runs an uploaded audio file through the pipeline
func (h *Handler) transcribe(c *gin.Context) {
	// multipart overhead on top of the audio ceiling
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxAudioBytes+(1<<20))

	file, err := formFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, fmt.Errorf("%w: request body exceeds %d bytes", stt.ErrAudioTooLarge, tooLarge.Limit))
			return
		}
		utils.Error(c, http.StatusBadRequest, "audio_file is required: "+err.Error())
		return
	}

	upload, err := storage.ReadAudio(file, h.opts.MaxAudioBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("upload received", "upload", upload.ID, "file", upload.Filename, "bytes", upload.Size, "mime", upload.MIME)

	refine := h.opts.RefineByDefault
	if v := c.PostForm("refine"); v != "" {
		if refine, err = strconv.ParseBool(v); err != nil {
			utils.Error(c, http.StatusBadRequest, "refine must be a boolean")
			return
		}
	}

	req := upload.Request(c.DefaultPostForm("language", h.opts.Language), c.DefaultPostForm("prompt", h.opts.Prompt))
	out, err := h.pipeline.Run(c.Request.Context(), req, pipeline.Options{Refine: refine})
	if err != nil {
		h.fail(c, err)
		return
	}

	res := out.Transcript
	data := gin.H{
		"id":         out.ID.String(),
		"filename":   upload.Filename,
		"size":       upload.Size,
		"transcript": res.Transcript,
		"language":   res.Language,
		"provider":   res.Provider,
		"credential": res.Credential.Name,
		"attempts":   len(res.Attempts),
		"elapsed_ms": out.Elapsed.Milliseconds(),
		"stats":      utils.Stats(res.Transcript),
	}
	if out.Refined != nil {
		data["refined_text"] = out.Refined.Text
		data["truncated"] = out.Refined.Truncated
		data["model"] = out.Refined.Model
	}
	if out.RefineErr != nil {
		data["refine_error"] = out.RefineErr.Error()
	}
	utils.Success(c, data)
}

// formFile looks for the upload under audio_file, then audio, then file.
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	var firstErr error
	for _, field := range []string{"audio_file", "audio", "file"} {
		file, err := c.FormFile(field)
		if err == nil {
			return file, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

type exportRequest struct {
	Text  string `json:"text" binding:"required"`
	Title string `json:"title" binding:"max=200"`
}

// exportPDF renders the posted text as a right-to-left PDF
func (h *Handler) exportPDF(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid export request: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.pdf.Render(&buf, export.Document{Title: req.Title, Text: req.Text}); err != nil {
		h.opts.Metrics.ObserveExport("pdf", "error")
		h.logger.Error("pdf export failed", "err", err)
		utils.ErrorWithKind(c, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	h.opts.Metrics.ObserveExport("pdf", "ok")
	utils.Attachment(c, "application/pdf", "transcription-"+uuid.NewString()[:8]+".pdf", buf.Bytes())
}

// exportTXT returns the posted text as a plain-text download
func (h *Handler) exportTXT(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid export request: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.WriteText(&buf, req.Text); err != nil {
		h.opts.Metrics.ObserveExport("txt", "error")
		utils.ErrorWithKind(c, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	h.opts.Metrics.ObserveExport("txt", "ok")
	utils.Attachment(c, "text/plain; charset=utf-8", export.TextFilename, buf.Bytes())
}
