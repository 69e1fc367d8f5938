package composition

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/export"
	"github.com/inamate/motion/internal/render"
)

const maxScale = 4

type Handler struct {
	service *Service
	encoder *export.Encoder

	maxUpload int64
	scale     float64
}

// NewHandler serves service. Uploads above maxUpload bytes are refused and
// frames render at scale unless the request overrides it.
func NewHandler(service *Service, encoder *export.Encoder, maxUpload int64, scale float64) *Handler {
	if scale <= 0 {
		scale = 1
	}
	return &Handler{service: service, encoder: encoder, maxUpload: maxUpload, scale: scale}
}

// Routes registers the composition routes on r. Uploads and deletes are
// wrapped in protect.
func (h *Handler) Routes(r *mux.Router, protect mux.MiddlewareFunc) {
	r.Handle("/compositions", protect(http.HandlerFunc(h.Create))).Methods("POST", "OPTIONS")
	r.HandleFunc("/compositions", h.List).Methods("GET")
	r.HandleFunc("/compositions/{id}", h.Get).Methods("GET")
	r.Handle("/compositions/{id}", protect(http.HandlerFunc(h.Delete))).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/compositions/{id}/frames/{frame}.png", h.Frame).Methods("GET")
	r.HandleFunc("/compositions/{id}/commands", h.Commands).Methods("GET")
	r.HandleFunc("/compositions/{id}/assets/{assetId}", h.Asset).Methods("GET")
	r.HandleFunc("/compositions/{id}/video", h.Video).Methods("GET")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "composition too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}

	info, err := h.service.Create(r.Context(), r.URL.Query().Get("name"), data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("list compositions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Frame renders one frame as PNG. The frame is absolute; scale defaults to
// the configured render scale.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	frame, err := strconv.ParseFloat(vars["frame"], 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid frame"})
		return
	}
	scale, err := h.scaleParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	e, err := h.service.Engine(r.Context(), vars["id"], scale)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	e.SetFrame(frame)

	rd, err := render.New(e)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	png, err := rd.PNGBytes()
	if err != nil {
		slog.Error("render frame failed", "error", err, "id", vars["id"], "frame", frame)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}

// Commands returns the draw commands recorded at ?progress=, in [0, 1].
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	progress := 0.0
	if s := r.URL.Query().Get("progress"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil || p < 0 || p > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "progress must be between 0 and 1"})
			return
		}
		progress = p
	}

	e, err := h.service.Engine(r.Context(), mux.Vars(r)["id"], 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	cmds, err := e.Commands(progress)
	if err != nil {
		slog.Error("record commands failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	out, err := engine.CommandsToJSON(cmds)
	if err != nil {
		slog.Error("encode commands failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, out)
}

// Asset serves the embedded bytes of an image asset.
func (h *Handler) Asset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	img, err := h.service.Image(r.Context(), vars["id"], vars["assetId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(img.Data))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(img.Data)
}

// Video renders a frame range and encodes it with ffmpeg.
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "mp4"
	}
	contentType, err := export.ContentType(format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !h.encoder.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "video export unavailable"})
		return
	}
	var rng export.Range
	for name, dst := range map[string]*float64{"from": &rng.From, "to": &rng.To} {
		if s := q.Get(name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
				return
			}
			*dst = v
		}
	}
	scale, err := h.scaleParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id := mux.Vars(r)["id"]
	e, err := h.service.Engine(r.Context(), id, scale)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	fps := e.Composition().FrameRate()
	if s := q.Get("fps"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > 120 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fps must be between 0 and 120"})
			return
		}
		fps = v
	}

	dir, err := os.MkdirTemp("", "motion-export-*")
	if err != nil {
		slog.Error("create temp dir failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	defer os.RemoveAll(dir)

	n, err := export.RenderFrames(r.Context(), e, rng, dir)
	if err != nil {
		slog.Error("render frames failed", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty frame range"})
		return
	}

	slog.Info("encoding video", "id", id, "frames", n, "format", format, "fps", fps)
	path, err := h.encoder.Encode(r.Context(), dir, fps, format)
	if err != nil {
		slog.Error("ffmpeg encoding failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "video encoding failed"})
		return
	}

	out, err := os.Open(path)
	if err != nil {
		slog.Error("open output failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	defer out.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
	if stat, err := out.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	}
	io.Copy(w, out)
}

func (h *Handler) scaleParam(r *http.Request) (float64, error) {
	s := r.URL.Query().Get("scale")
	if s == "" {
		return h.scale, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > maxScale {
		return 0, fmt.Errorf("scale must be between 0 and %d", maxScale)
	}
	return v, nil
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
