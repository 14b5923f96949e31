package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/japaniel/gaia/internal/config"
	"github.com/japaniel/gaia/pkg/analyze"
	"github.com/japaniel/gaia/pkg/lexicon"
	"github.com/japaniel/gaia/pkg/pos"
)

// ---- JSON request/response types ----------------------------------------

type posResponse struct {
	Results []posResult `json:"results"`
}

type validateRequest struct {
	Sentence string `json:"sentence"`
}

type learnRequest struct {
	Word       string   `json:"word"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type learnResponse struct {
	Word       string           `json:"word"`
	Category   lexicon.Category `json:"category"`
	Confidence float64          `json:"confidence"`
	Persisted  bool             `json:"persisted"`
	Error      string           `json:"error,omitempty"`
	Code       string           `json:"code,omitempty"`
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

type wordsResponse struct {
	Category lexicon.Category `json:"category"`
	Words    []string         `json:"words"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ---- helpers ------------------------------------------------------------

type server struct {
	engine  *engine
	logger  *log.Logger
	limiter *rate.Limiter
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode error", "err", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var lerr *lexicon.Error
	if errors.As(err, &lerr) {
		resp.Code = string(lerr.Code)
	}
	s.writeJSON(w, status, resp)
}

// newHandler builds the API mux wrapped in CORS.
func newHandler(e *engine, cfg config.ServerConfig, logger *log.Logger) http.Handler {
	s := &server{
		engine:  e,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.LearnRate), cfg.LearnBurst),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos", s.handlePOS)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/api/learn", s.handleLearn)
	mux.HandleFunc("/api/words", s.handleWords)
	mux.HandleFunc("/api/hint", s.handleHint)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// ---- handlers -----------------------------------------------------------

// handlePOS serves GET /api/pos?word=a&word=b or ?text=a+b.
func (s *server) handlePOS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("GET required"))
		return
	}
	q := r.URL.Query()
	parts := append([]string{q.Get("text")}, q["word"]...)
	words := analyze.Tokenize(strings.Join(parts, " "))
	if len(words) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("missing 'word' or 'text' query parameter"))
		return
	}
	classes := s.engine.resolver.ResolveAll(words)
	out := make([]posResult, len(words))
	for i, word := range words {
		out[i] = posResult{Word: word, Classification: classes[i]}
	}
	s.writeJSON(w, http.StatusOK, posResponse{Results: out})
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var body validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || strings.TrimSpace(body.Sentence) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be JSON with a non-empty 'sentence' field"))
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.analyzer.AnalyzeSentence(body.Sentence))
}

func (s *server) handleLearn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	if !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, errors.New("learn rate limit exceeded"))
		return
	}
	var body learnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be JSON with 'word' and 'category'"))
		return
	}
	cat, err := lexicon.NewCategory(strings.ToLower(body.Category))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	confidence := pos.DefaultLearnConfidence
	if body.Confidence != nil {
		confidence = *body.Confidence
	}
	entry, err := s.engine.learner.Learn(r.Context(), body.Word, cat, confidence)
	switch {
	case err != nil && errors.Is(err, lexicon.ErrPersistFailed):
		// The merge is live in memory; report it with the persist failure.
		s.logger.Error("learn not persisted", "word", body.Word, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, learnResponse{
			Word: lexicon.Normalize(body.Word), Category: entry.Category, Confidence: entry.Confidence,
			Error: err.Error(), Code: string(lexicon.CodePersistFailed),
		})
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.engine.memory != nil {
		if _, err := s.engine.memory.Append(r.Context(),
			"GAIA learned the word '"+lexicon.Normalize(body.Word)+"' as "+entry.Category.String(),
			"learning", "api"); err != nil {
			s.logger.Warn("failed to record memory", "err", err)
		}
	}
	s.writeJSON(w, http.StatusOK, learnResponse{
		Word: lexicon.Normalize(body.Word), Category: entry.Category, Confidence: entry.Confidence, Persisted: true,
	})
}

func (s *server) handleWords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("GET required"))
		return
	}
	cat, err := lexicon.NewCategory(strings.ToLower(r.URL.Query().Get("category")))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	words := s.engine.store.WordsOfCategory(cat)
	if words == nil {
		words = []string{}
	}
	s.writeJSON(w, http.StatusOK, wordsResponse{Category: cat, Words: words})
}

func (s *server) handleHint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("GET required"))
		return
	}
	word := r.URL.Query().Get("word")
	if word == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("missing 'word' query parameter"))
		return
	}
	s.writeJSON(w, http.StatusOK, hintResult{Word: word, Hint: s.engine.hints.Hint(word, s.engine.resolver)})
}
