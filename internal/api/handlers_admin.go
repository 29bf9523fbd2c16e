package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ledrent/internal/models"
)

func (s *HTTPServer) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	settings, err := s.company.GetCompanySettings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": settings})
}

func (s *HTTPServer) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var settings models.CompanySettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if settings.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.company.UpdateCompanySettings(r.Context(), &settings); err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := s.company.GetCompanySettings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": updated})
}

func (s *HTTPServer) handleListActivities(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity != "" {
		entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
		if err != nil || entityID <= 0 {
			writeError(w, http.StatusBadRequest, "entity_id is required with entity")
			return
		}
		activities, aerr := s.activities.ListEntityActivities(r.Context(), entity, entityID)
		if aerr != nil {
			writeDomainError(w, aerr)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
		return
	}

	limit := queryInt(r, "limit", models.DefaultListLimit)
	offset := queryInt(r, "offset", 0)
	activities, err := s.activities.ListActivities(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

// adminActor разрешает актера сессии; без прав администратора пишет
// 403 и возвращает nil.
func (s *HTTPServer) adminActor(w http.ResponseWriter, r *http.Request) *models.User {
	session := sessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	actor, err := s.users.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeDomainError(w, err)
		return nil
	}
	if !actor.IsAdmin {
		writeError(w, http.StatusForbidden, "admin rights required")
		return nil
	}
	return actor
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.adminActor(w, r) == nil {
		return
	}

	users, err := s.users.GetAllUsers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor := s.adminActor(w, r)
	if actor == nil {
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Name, req.Email, req.Password, req.IsAdmin, actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *HTTPServer) handleMaintenanceInfo(w http.ResponseWriter, r *http.Request) {
	overdue, err := s.company.GetOverdueBookings(r.Context(), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "maintenance expires overdue bookings; POST /api/v1/maintenance/run to trigger",
		"overdue": overdue,
	})
}

func (s *HTTPServer) handleMaintenanceRun(w http.ResponseWriter, r *http.Request) {
	expired, err := s.bookings.RunMaintenance(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.logger.Info().Int("expired", expired).Int64("actor_id", actorID(r)).Msg("manual maintenance run")
	writeJSON(w, http.StatusOK, map[string]any{"expired": expired})
}
