package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shouni/genimage-adapter/pkg/domain"
	"github.com/shouni/genimage-adapter/pkg/generator"
)

// リクエスト本文の上限。base64 の画像 2 枚を想定する。
const maxRequestBytes = 48 << 20

// Generator は HTTP ハンドラーが必要とする生成処理です。*generator.Adapter はこれを満たします。
type Generator interface {
	Generate(ctx context.Context, req domain.Request) (*domain.Result, error)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	Aspect string `json:"aspect"`
}

type styleRequest struct {
	Image        string `json:"image"`
	Style        string `json:"style"`
	RefinePrompt string `json:"refinePrompt"`
}

type fuseRequest struct {
	ImageA string `json:"imageA"`
	ImageB string `json:"imageB"`
}

type fitCheckRequest struct {
	PersonImage string `json:"personImage"`
	OutfitImage string `json:"outfitImage"`
}

type imageResponse struct {
	Image    string              `json:"image,omitempty"`
	MIMEType string              `json:"mimeType,omitempty"`
	Analysis *domain.FitAnalysis `json:"analysis,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Handler は 4 種類の生成操作を JSON API として公開します。
type Handler struct {
	gen Generator
}

// NewHandler は Handler を生成します。
func NewHandler(gen Generator) (*Handler, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Handler{gen: gen}, nil
}

// Router はミドルウェアを適用したルーターを返します。
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, AccessLog)

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/v1/images").Subrouter()
	api.HandleFunc("/generate", h.HandleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/style", h.HandleStyle).Methods(http.MethodPost)
	api.HandleFunc("/fuse", h.HandleFuse).Methods(http.MethodPost)
	api.HandleFunc("/fit-check", h.HandleFitCheck).Methods(http.MethodPost)
	return r
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	h.run(w, r, domain.TextToImage{Prompt: body.Prompt, Style: body.Style, Aspect: body.Aspect})
}

func (h *Handler) HandleStyle(w http.ResponseWriter, r *http.Request) {
	var body styleRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	source, ok := parseImageField(w, r, "image", body.Image)
	if !ok {
		return
	}
	h.run(w, r, domain.StyleTransform{Source: source, Style: body.Style, RefinePrompt: body.RefinePrompt})
}

func (h *Handler) HandleFuse(w http.ResponseWriter, r *http.Request) {
	var body fuseRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	imageA, ok := parseImageField(w, r, "imageA", body.ImageA)
	if !ok {
		return
	}
	imageB, ok := parseImageField(w, r, "imageB", body.ImageB)
	if !ok {
		return
	}
	h.run(w, r, domain.Fuse{ImageA: imageA, ImageB: imageB})
}

func (h *Handler) HandleFitCheck(w http.ResponseWriter, r *http.Request) {
	var body fitCheckRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	person, ok := parseImageField(w, r, "personImage", body.PersonImage)
	if !ok {
		return
	}
	outfit, ok := parseImageField(w, r, "outfitImage", body.OutfitImage)
	if !ok {
		return
	}
	h.run(w, r, domain.FitCheck{Person: person, Outfit: outfit})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, req domain.Request) {
	ctx := r.Context()
	res, err := h.gen.Generate(ctx, req)
	if err != nil {
		status := statusFor(err)
		slog.WarnContext(ctx, "生成に失敗しました",
			"request_id", RequestIDFromContext(ctx),
			"kind", req.Kind(),
			"status", status,
			"error", err,
		)
		writeError(w, r, status, err)
		return
	}

	var resp imageResponse
	if res.Image != nil {
		resp.Image = res.Image.DataURL()
		resp.MIMEType = res.Image.MIMEType
	}
	resp.Analysis = res.Analysis
	writeJSON(w, http.StatusOK, resp)
}

// statusFor は生成エラーの種類を HTTP ステータスに対応付けます。
func statusFor(err error) int {
	var (
		cfgErr     *generator.ConfigurationError
		backendErr *generator.BackendError
		formatErr  *generator.ResponseFormatError
		missingErr *generator.ImageMissingError
	)
	switch {
	case errors.Is(err, generator.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &backendErr):
		if backendErr.Status == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case errors.As(err, &formatErr), errors.As(err, &missingErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

func parseImageField(w http.ResponseWriter, r *http.Request, field, value string) (domain.Image, bool) {
	img, err := domain.ParseImage(value)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%s: %w", field, err))
		return domain.Image{}, false
	}
	return img, true
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestIDFromContext(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}
