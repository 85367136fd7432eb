// Package api exposes the survey over HTTP: document upload, question
// listing, answer submission, question explanations and finalization.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/survey-cli/internal/explain"
	"github.com/sells-group/survey-cli/internal/extract"
	"github.com/sells-group/survey-cli/internal/model"
	"github.com/sells-group/survey-cli/internal/resolver"
	"github.com/sells-group/survey-cli/internal/session"
	"github.com/sells-group/survey-cli/internal/store"
	"github.com/sells-group/survey-cli/internal/workbook"
)

// Messages returned to the survey front end.
const (
	MsgUploaded  = "Files uploaded"
	MsgSaved     = "Responses saved."
	MsgNoTopic   = "No topic set."
	MsgLocked    = "Please close the Excel file before saving!"
	MsgSaveError = "An error occurred while saving the file."
)

// Deps are the collaborators a Server needs. Store may be nil, in which
// case finalize only writes the workbook.
type Deps struct {
	Session   *session.Session
	Resolver  *resolver.Resolver
	Explainer *explain.Explainer
	Workbook  *workbook.Writer
	Store     store.Store
	UploadDir string
	MaxUpload int64
}

// Server handles survey HTTP requests.
type Server struct {
	Deps
}

// New creates a Server.
func New(d Deps) *Server {
	if d.MaxUpload <= 0 {
		d.MaxUpload = 32 << 20
	}
	return &Server{Deps: d}
}

// Handler returns the chi router with CORS configured for origins.
func (s *Server) Handler(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/questions", s.handleQuestions)
	r.Get("/get_questions", s.handleQuestions)
	r.Post("/submit", s.handleSubmit)
	r.Post("/explain", s.handleExplain)
	r.Post("/finalize", s.handleFinalize)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload)
	file, header, err := r.FormFile("docx")
	if err != nil {
		writeError(w, http.StatusBadRequest, "docx file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	name, ok := uploadName(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, "docx file is required")
		return
	}
	path, err := s.save(file, name)
	if err != nil {
		zap.L().Error("upload: save failed", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save the upload")
		return
	}

	paragraphs, err := extract.ReadDOCXFile(path)
	if err != nil {
		zap.L().Warn("upload: unreadable document", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusBadRequest, "could not read the document")
		return
	}

	questions := extract.Questions(paragraphs)
	survey := s.Session.Reset(extract.Topic(name), questions)
	if s.Explainer != nil {
		if err := s.Explainer.Reset(r.Context()); err != nil {
			zap.L().Warn("upload: clear explanations failed", zap.Error(err))
		}
	}

	zap.L().Info("survey uploaded",
		zap.String("survey_id", survey.ID),
		zap.String("topic", survey.Topic),
		zap.Int("questions", len(questions)),
	)
	writeJSON(w, http.StatusOK, map[string]any{"message": MsgUploaded, "count": len(questions)})
}

// uploadName strips directories from a client file name. It fails for
// names that leave no file or no topic behind.
func uploadName(filename string) (string, bool) {
	name := filepath.Base(filename)
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", false
	}
	if extract.Topic(name) == "" {
		return "", false
	}
	return name, true
}

func (s *Server) save(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", eris.Wrap(err, "api: create upload dir")
	}
	path := filepath.Join(s.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "api: create upload file")
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		return "", eris.Wrap(err, "api: write upload file")
	}
	return path, nil
}

func (s *Server) handleQuestions(w http.ResponseWriter, _ *http.Request) {
	questions := s.Session.Questions()
	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Text
	}
	writeJSON(w, http.StatusOK, map[string][]string{"questions": texts})
}

type submitRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type submitResponse struct {
	Reply string `json:"reply"`
	Retry bool   `json:"retry"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	q := extract.ParseQuestion(req.Question)
	out := s.Resolver.Resolve(r.Context(), s.Session, q, req.Answer)
	reply, retry := resolver.Reply(q, req.Answer, out)
	writeJSON(w, http.StatusOK, submitResponse{Reply: reply, Retry: retry})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if s.Explainer == nil {
		writeJSON(w, http.StatusOK, map[string]string{"explanation": explain.Fallback})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": s.Explainer.Explain(r.Context(), req.Question)})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	survey, responses := s.Session.Snapshot()
	if survey.Topic == "" {
		writeError(w, http.StatusBadRequest, MsgNoTopic)
		return
	}

	err := Finalize(r.Context(), s.Workbook, s.Store, survey, responses)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": MsgSaved})
	case errors.Is(err, workbook.ErrLocked):
		zap.L().Warn("finalize: workbook locked", zap.String("topic", survey.Topic))
		writeError(w, http.StatusInternalServerError, MsgLocked)
	default:
		zap.L().Error("finalize: save failed", zap.String("topic", survey.Topic), zap.Error(err))
		writeError(w, http.StatusInternalServerError, MsgSaveError)
	}
}

// Finalize writes responses to the survey's workbook and, when st is not
// nil, archives them. Both run concurrently; the first error is returned.
func Finalize(ctx context.Context, wb *workbook.Writer, st store.Store, survey model.Survey, responses []model.Response) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wb.Append(survey.Topic, survey.Questions, responses)
	})
	if st != nil {
		g.Go(func() error {
			if err := st.SaveSurvey(gctx, survey); err != nil {
				return err
			}
			return st.SaveResponses(gctx, survey.ID, responses)
		})
	}
	return g.Wait()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
