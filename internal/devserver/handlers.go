package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/diogo/chatwidget/internal/models"
)

// maxRequestBody bounds a decoded chat request
const maxRequestBody = 1 << 20

type handlerResponse struct {
	Code int
	Body interface{}
	Err  error
}

type returnHandler func(http.ResponseWriter, *http.Request) *handlerResponse

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func handleError(code int, err error) *handlerResponse {
	return &handlerResponse{Code: code, Body: &ErrorResponse{Code: code, Error: http.StatusText(code)}, Err: err}
}

// jsonMiddleware enforces a JSON request body on non-GET methods and encodes the response
func jsonMiddleware(next returnHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp *handlerResponse

		if r.Method != http.MethodGet {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			switch {
			case err != nil:
				resp = handleError(http.StatusUnsupportedMediaType, errors.New("could not parse Content-Type"))
			case mediaType != "application/json":
				resp = handleError(http.StatusUnsupportedMediaType, fmt.Errorf("Content-Type %q not application/json", mediaType))
			}
		}

		if resp == nil {
			resp = next(w, r)
		}

		if resp.Err != nil {
			log.Warn().Err(resp.Err).Int("code", resp.Code).Str("path", r.URL.Path).Msg("request rejected")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Code)
		if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("could not encode response")
		}
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) *handlerResponse {
	var req models.ChatRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("could not decode chat request: %w", err))
	}
	if len(req.Messages) == 0 {
		return handleError(http.StatusBadRequest, errors.New("chat request has no messages"))
	}

	reply, err := s.responder.Respond(r.Context(), req)
	if err != nil {
		return handleError(http.StatusInternalServerError, fmt.Errorf("responder failed: %w", err))
	}

	log.Debug().Int("messages", len(req.Messages)).Int("reply_len", len(reply)).Msg("chat request answered")

	return &handlerResponse{Code: http.StatusOK, Body: models.ChatResponse{Result: reply}}
}

func handleHealth(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return &handlerResponse{Code: http.StatusOK, Body: map[string]string{"status": "ok"}}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return handleError(http.StatusNotFound, fmt.Errorf("no handler for %s %s", r.Method, r.URL.Path))
}
