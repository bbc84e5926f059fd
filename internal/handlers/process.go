package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"media-processor/internal/command"
	"media-processor/internal/logging"
	"media-processor/internal/metrics"
	"media-processor/internal/orchestrator"
	"media-processor/internal/streaming"
	"media-processor/internal/workspace"
)

// multipartMemoryLimit is how much of a parsed form may stay in memory
// before spilling to temp files; uploads above it are not rejected.
const multipartMemoryLimit = 32 << 20

// ProcessSingle handles POST /process: one uploaded file plus a raw
// ffmpeg command.
func (h *Handlers) ProcessSingle(w http.ResponseWriter, r *http.Request) {
	if !h.parseUploadForm(w, r) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "form field 'file' is required", http.StatusBadRequest)
		return
	}
	file.Close() // reopened via the upload's Open

	rawCommand := r.FormValue("command")
	if strings.TrimSpace(rawCommand) == "" {
		writeJSONError(w, "form field 'command' is required", http.StatusBadRequest)
		return
	}

	outputFormat := r.FormValue("output_format")
	if outputFormat == "" {
		// Match the input container when the caller doesn't say.
		outputFormat = strings.TrimPrefix(workspace.SanitizeExtension(header.Filename), ".")
	}

	op := command.Operation{Kind: command.KindCustom, RawArgs: rawCommand}
	h.run(w, r, op, []*multipart.FileHeader{header}, outputFormat)
}

// ProcessMulti handles POST /process-multi: multiple uploaded files
// plus an operation name and an optional JSON options payload.
func (h *Handlers) ProcessMulti(w http.ResponseWriter, r *http.Request) {
	if !h.parseUploadForm(w, r) {
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSONError(w, "form field 'files' requires at least one file", http.StatusBadRequest)
		return
	}

	name := r.FormValue("operation")
	if name == "" {
		writeJSONError(w, "form field 'operation' is required", http.StatusBadRequest)
		return
	}

	op, err := command.Parse(name, r.FormValue("command"), r.FormValue("options"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.run(w, r, op, files, r.FormValue("output_format"))
}

// parseUploadForm parses the multipart body under the configured upload
// size limit, writing the error response itself on failure.
func (h *Handlers) parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, "upload exceeds the size limit", http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "invalid multipart request", http.StatusBadRequest)
		}
		return false
	}
	return true
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, op command.Operation, files []*multipart.FileHeader, outputFormat string) {
	uploads := make([]orchestrator.Upload, len(files))
	for i, fh := range files {
		fh := fh
		uploads[i] = orchestrator.Upload{
			Filename: fh.Filename,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}

	result, perr := h.orch.Process(r.Context(), op, uploads, outputFormat)
	if perr != nil {
		h.writeOrchestratorError(w, perr)
		return
	}
	defer func() {
		if err := result.Release(); err != nil {
			logging.Error("failed to release workspace for %s: %v", result.Filename, err)
		}
	}()

	h.streamResult(w, r, result)
}

// streamResult transmits the output artifact as the response body. A
// mid-stream failure is best-effort: logged, never retried, and headers
// are already gone.
func (h *Handlers) streamResult(w http.ResponseWriter, r *http.Request, result *orchestrator.Result) {
	f, err := os.Open(result.OutputPath)
	if err != nil {
		logging.Error("failed to open output artifact %s: %v", result.OutputPath, err)
		writeJSONError(w, "output artifact unreadable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(result.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)

	n, err := streaming.Stream(r.Context(), w, f, h.streamConfig)
	metrics.StreamedBytesTotal.Add(float64(n))

	if err != nil {
		switch {
		case errors.Is(err, streaming.ErrClientGone):
			logging.Debug("client disconnected after %d bytes of %s", n, result.Filename)
		default:
			logging.Error("streaming %s failed after %d bytes: %v", result.Filename, n, err)
		}
	}
}

func (h *Handlers) writeOrchestratorError(w http.ResponseWriter, perr *orchestrator.Error) {
	status := http.StatusInternalServerError
	switch perr.Kind {
	case orchestrator.FailValidation:
		status = http.StatusBadRequest
	case orchestrator.FailProcess:
		// The external tool rejected the input; the caller gets the
		// diagnostics to fix it.
		status = http.StatusBadRequest
	case orchestrator.FailTimeout:
		status = http.StatusRequestTimeout
	case orchestrator.FailIO:
		status = http.StatusInternalServerError
	case orchestrator.FailResource, orchestrator.FailLaunch:
		status = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"error": perr.Message,
		"stage": string(perr.Stage),
		"kind":  perr.Kind.String(),
	}
	if perr.Detail != "" {
		body["detail"] = perr.Detail
	}
	if perr.Kind == orchestrator.FailProcess {
		body["exit_code"] = perr.ExitCode
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, body)
}
