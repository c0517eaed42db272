package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leaftown/property-api/internal/application/listing"
	"github.com/leaftown/property-api/internal/domain"
	"github.com/leaftown/property-api/internal/pkg/validate"
	"github.com/leaftown/property-api/internal/transport/http/middleware"
)

// ListingHandler handles apartment and plot listing endpoints.
type ListingHandler struct {
	svc listing.Service
}

func NewListingHandler(svc listing.Service) *ListingHandler {
	return &ListingHandler{svc: svc}
}

func sellerID(r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

func (h *ListingHandler) CreateApartment(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.CreateApartment(r.Context(), sid, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *ListingHandler) ListApartments(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListApartments(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListingHandler) GetApartment(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetApartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ListingHandler) UpdateApartment(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.svc.UpdateApartment(r.Context(), sid, chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ListingHandler) DeleteApartment(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.DeleteApartment(r.Context(), sid, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}

func (h *ListingHandler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreatePlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.CreatePlot(r.Context(), sid, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ListingHandler) ListPlots(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListPlots(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListingHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPlot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ListingHandler) UpdatePlot(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdatePlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.UpdatePlot(r.Context(), sid, chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ListingHandler) DeletePlot(w http.ResponseWriter, r *http.Request) {
	sid, ok := sellerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.DeletePlot(r.Context(), sid, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
