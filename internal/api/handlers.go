package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/model"
)

// Handler serves the claim lifecycle endpoints.
type Handler struct {
	svc *claim.Service
}

// NewHandler creates the endpoint handler over a claim service.
func NewHandler(svc *claim.Service) *Handler {
	return &Handler{svc: svc}
}

// actorFrom extracts the identity the external provider attached to the
// request. The id and role headers are mandatory on mutating calls.
func actorFrom(r *http.Request) (model.Actor, bool) {
	actor := model.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: model.Role(r.Header.Get("X-Actor-Role")),
	}
	return actor, actor.ID != "" && actor.Role != ""
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "actor identity required"})
		return
	}

	var draft model.ClaimDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	c, err := h.svc.Submit(r.Context(), actor, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"claim_id":    c.ClaimID,
		"fingerprint": c.Fingerprint,
		"status":      c.Status,
	})
}

func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := claim.Filter{
		Status:        model.ClaimStatus(q.Get("status")),
		ContributorID: q.Get("contributor"),
		SortField:     q.Get("sort"),
		SortOrder:     q.Get("order"),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": page.Data,
		"meta": map[string]any{
			"page":  page.Page,
			"pages": page.Pages,
			"total": page.Total,
			"limit": page.Limit,
		},
	})
}

func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "actor identity required"})
		return
	}

	var upd claim.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	c, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) AppendEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "actor identity required"})
		return
	}

	var ev model.Evidence
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	c, err := h.svc.AppendEvidence(r.Context(), actor, chi.URLParam(r, "id"), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evidence": c.Evidence})
}

func (h *Handler) DecideClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "actor identity required"})
		return
	}

	var req struct {
		Approved bool     `json:"approved"`
		Credits  *float64 `json:"credits,omitempty"`
		Notes    string   `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	c, _, err := h.svc.Decide(r.Context(), actor, chi.URLParam(r, "id"), req.Approved, req.Credits, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"status":      c.Status,
		"verified_at": c.VerifiedAt,
	}
	if c.CreditsIssued != nil {
		resp["credits_issued"] = *c.CreditsIssued
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AttachVegetation(w http.ResponseWriter, r *http.Request) {
	var vi model.VegetationIndex
	if err := json.NewDecoder(r.Body).Decode(&vi); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	c, err := h.svc.AttachVegetationIndex(r.Context(), chi.URLParam(r, "id"), vi)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claim_id":         c.ClaimID,
		"vegetation_index": c.VegetationIndex,
	})
}

func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	credits, err := h.svc.Credits(r.Context(), claim.CreditFilter{
		OwnerID: q.Get("owner"),
		ClaimID: q.Get("claim"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if credits == nil {
		credits = []model.Credit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": credits})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
