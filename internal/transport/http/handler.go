package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"edumint-quiz-service/internal/app"
	"edumint-quiz-service/internal/domain"
)

// Handler exposes the quiz use cases over JSON HTTP.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// questionResponse is the client-facing question shape. The correct answer is
// withheld; it lives only in server memory until scoring.
type questionResponse struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

type submitRequest struct {
	Wallet  string           `json:"wallet"`
	Answers domain.AnswerSet `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetQuiz handles GET /api/quiz.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	questions, err := h.service.GetQuiz(r.Context())
	if err != nil {
		log.Printf("quiz fetch error: %v", err)
		// The provider answering with an error code reads differently to the
		// client than not reaching it at all.
		if errors.Is(err, domain.ErrUpstreamRejected) {
			writeError(w, http.StatusInternalServerError, "OpenTDB unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch quiz questions")
		return
	}

	writeJSON(w, http.StatusOK, sanitize(questions))
}

// Submit handles POST /api/quiz/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All 5 questions must be answered")
		return
	}

	result, err := h.service.Submit(r.Context(), req.Wallet, req.Answers)
	if err != nil {
		status, message := submitError(err)
		if status == http.StatusInternalServerError {
			log.Printf("submission error for %s: %v", walletPrefix(req.Wallet), err)
		}
		writeError(w, status, message)
		return
	}

	log.Printf("score for %s: %v%%", walletPrefix(req.Wallet), result.Score)
	writeJSON(w, http.StatusOK, result)
}

func submitError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrWalletRequired):
		return http.StatusBadRequest, "Wallet address required"
	case errors.Is(err, domain.ErrIncompleteSubmission):
		return http.StatusBadRequest, "All 5 questions must be answered"
	case errors.Is(err, domain.ErrNoActiveQuiz):
		return http.StatusBadRequest, "No active quiz. Start a new quiz"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusForbidden, "One attempt per day allowed"
	default:
		return http.StatusInternalServerError, "Failed to process quiz"
	}
}

func sanitize(questions []domain.Question) []questionResponse {
	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionResponse{ID: q.ID, Question: q.Text, Answers: q.Answers})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// walletPrefix truncates wallet addresses for logs.
func walletPrefix(wallet string) string {
	if len(wallet) <= 6 {
		return wallet
	}
	return wallet[:6] + "..."
}
