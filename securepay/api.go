package securepay

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alovak/securepay/securepay/models"
)

// deniedMessage is the same for every failure so a link holder learns nothing
// about why a token was rejected.
const deniedMessage = "This payment link is not valid. Ask the sender for a new one."

// API is a HTTP API for the securepay service
type API struct {
	svc *Service
}

func NewAPI(svc *Service) *API {
	return &API{
		svc: svc,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Get("/secure-payment/{token}", a.resolvePayment)
}

// AppendDevRoutes mounts the token and card helpers used in local setups.
func (a *API) AppendDevRoutes(r chi.Router) {
	r.Route("/dev", func(r chi.Router) {
		r.Post("/tokens", a.issueToken)
		r.Post("/cards", a.createCard)
	})
}

func (a *API) resolvePayment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	res, err := a.svc.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "access_denied", Message: deniedMessage})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	req := models.IssueToken{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	issued, err := a.svc.IssueToken(req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, issued)
}

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	req := models.CreateCard{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := a.svc.CreateCard(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
