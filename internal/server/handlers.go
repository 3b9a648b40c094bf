package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

// searchTitleBoost weights catalog title hits over description hits.
const searchTitleBoost = 2.0

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var query models.RecommendationQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if query.NumRec <= 0 {
		query.NumRec = s.config.Recommend.DefaultLimit
	}
	if query.NumRec > s.config.Recommend.MaxLimit {
		query.NumRec = s.config.Recommend.MaxLimit
	}
	s.logger.Debug("recommendation request",
		zap.Int64("user_id", query.UserID),
		zap.String("course_title", query.CourseTitle),
		zap.Int("num_rec", query.NumRec),
	)
	response, err := s.recommender.Recommend(r.Context(), &query)
	if err != nil {
		s.respondDomainError(w, err, "recommendation failed")
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	s.handleMatchPolicy(w, r, s.matcher.Matches)
}

func (s *Server) handleComplementary(w http.ResponseWriter, r *http.Request) {
	s.handleMatchPolicy(w, r, s.matcher.Complementary)
}

func (s *Server) handleMentors(w http.ResponseWriter, r *http.Request) {
	s.handleMatchPolicy(w, r, s.matcher.Mentors)
}

func (s *Server) handleMatchPolicy(w http.ResponseWriter, r *http.Request, policy func(ctx context.Context, userID int64) (*models.MatchResponse, error)) {
	userID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	response, err := policy(r.Context(), userID)
	if err != nil {
		s.respondDomainError(w, err, "matching failed")
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCourseSearch(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog search not enabled")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := s.config.Recommend.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > s.config.Recommend.MaxLimit {
		limit = s.config.Recommend.MaxLimit
	}

	startTime := time.Now()
	hits, err := s.catalog.Search(r.Context(), query, limit, searchTitleBoost)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := make([]*models.CourseSearchResult, 0, len(hits))
	for _, hit := range hits {
		course, err := s.storage.GetCourse(r.Context(), hit.CourseID)
		if err != nil {
			// Index can briefly lag a course deletion.
			continue
		}
		results = append(results, &models.CourseSearchResult{
			Course: course,
			Score:  hit.Score,
			Rank:   len(results) + 1,
		})
	}
	s.respondJSON(w, http.StatusOK, &models.CourseSearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query,
	})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var input models.CourseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	course := &models.Course{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Level:       input.Level,
	}
	var err error
	if course.ID == 0 {
		err = s.storage.CreateCourse(r.Context(), course)
	} else {
		err = s.storage.UpsertCourse(r.Context(), course)
	}
	if err != nil {
		s.respondDomainError(w, err, "store course failed")
		return
	}
	if s.catalog != nil {
		if err := s.catalog.Index(r.Context(), course); err != nil {
			s.logger.Warn("course catalog index failed", zap.Int64("id", course.ID), zap.Error(err))
		}
	}
	s.recommender.Invalidate()
	s.respondJSON(w, http.StatusCreated, course)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	course, err := s.storage.GetCourse(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err, "get course failed")
		return
	}
	s.respondJSON(w, http.StatusOK, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.storage.DeleteCourse(r.Context(), id); err != nil {
		s.respondDomainError(w, err, "delete course failed")
		return
	}
	if s.catalog != nil {
		if err := s.catalog.Delete(r.Context(), id); err != nil {
			s.logger.Warn("course catalog delete failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	s.recommender.Invalidate()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.FullName == "" {
		s.respondError(w, http.StatusBadRequest, "full_name is required")
		return
	}
	user := &models.User{
		ID:                 input.ID,
		FullName:           input.FullName,
		Email:              input.Email,
		Bio:                input.Bio,
		Skills:             input.Skills,
		ExtractedSkills:    input.ExtractedSkills,
		ExtractedInterests: input.ExtractedInterests,
	}
	var err error
	if user.ID == 0 {
		err = s.storage.CreateUser(r.Context(), user)
	} else {
		err = s.storage.UpsertUser(r.Context(), user)
	}
	if err != nil {
		s.respondDomainError(w, err, "store user failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	user, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err, "get user failed")
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.storage.DeleteUser(r.Context(), id); err != nil {
		s.respondDomainError(w, err, "delete user failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var input models.EnrollmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.UserID <= 0 || input.CourseID <= 0 {
		s.respondError(w, http.StatusBadRequest, "user_id and course_id are required")
		return
	}
	// The user and course must exist; a dangling enrollment would silently
	// skew popularity counts.
	if _, err := s.storage.GetUser(r.Context(), input.UserID); err != nil {
		s.respondDomainError(w, err, "enrollment user lookup failed")
		return
	}
	if _, err := s.storage.GetCourse(r.Context(), input.CourseID); err != nil {
		s.respondDomainError(w, err, "enrollment course lookup failed")
		return
	}
	enrollment := &models.Enrollment{
		ID:       uuid.New().String(),
		UserID:   input.UserID,
		CourseID: input.CourseID,
	}
	if err := s.storage.CreateEnrollment(r.Context(), enrollment); err != nil {
		s.respondDomainError(w, err, "store enrollment failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, enrollment)
}

func (s *Server) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteEnrollment(r.Context(), id); err != nil {
		s.respondDomainError(w, err, "delete enrollment failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCorpusRebuild(w http.ResponseWriter, r *http.Request) {
	if err := s.recommender.Rebuild(r.Context()); err != nil {
		s.logger.Error("corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "rebuilt",
		"corpus_size": s.recommender.CorpusSize(),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		s.respondError(w, http.StatusNotImplemented, "seed import not enabled")
		return
	}
	stats, err := s.importer.ImportAll(r.Context())
	if err != nil {
		s.logger.Error("seed import failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recommender.Invalidate()
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courseCount, err := s.storage.CountCourses(ctx)
	if err != nil {
		s.logger.Error("status: count courses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	userCount, err := s.storage.CountUsers(ctx)
	if err != nil {
		s.logger.Error("status: count users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	enrollmentCount, err := s.storage.CountEnrollments(ctx)
	if err != nil {
		s.logger.Error("status: count enrollments failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"courses":     courseCount,
		"users":       userCount,
		"enrollments": enrollmentCount,
		"corpus_size": s.recommender.CorpusSize(),
	}
	if s.catalog != nil {
		if docCount, err := s.catalog.DocCount(); err == nil {
			resp["indexed_courses"] = docCount
		}
	}
	configInfo := map[string]interface{}{
		"database_path":    s.config.Storage.DatabasePath,
		"bleve_index_path": s.config.Storage.BleveIndexPath,
		"default_limit":    s.config.Recommend.DefaultLimit,
	}
	if s.watch != nil {
		configInfo["seed_directories"] = s.watch.Directories()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// pathID parses the {id} URL parameter; on failure it writes a 400 response
// and returns ok=false.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// respondDomainError maps domain sentinel errors to HTTP statuses: invalid
// input to 400, missing records to 404, everything else to 500.
func (s *Server) respondDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(logMsg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
