package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/export"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/schedule"
)

const (
	defaultRevisionsLimit = 20
	maxRevisionsLimit     = 100
)

// WriteResponse is returned by every successful admin change.
type WriteResponse struct {
	Revision string `json:"revision"`
	// Warnings lists accepted values that are out of order, e.g. a shift ending
	// before it starts.
	Warnings []schedule.Issue `json:"warnings,omitempty"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type labelRequest struct {
	Label string `json:"label"`
}

// ShiftTimesRequest sets any of the time fields of one shift. Omitted fields are kept.
type ShiftTimesRequest struct {
	OrderStart  *string `json:"orderStart,omitempty"`
	OrderEnd    *string `json:"orderEnd,omitempty"`
	DeliveryEnd *string `json:"deliveryEnd,omitempty"`
}

func (s *HTTPServer) decodeEnabled(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req enabledRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return false, false
	}
	return *req.Enabled, true
}

func shiftParam(r *http.Request) (int, error) {
	raw := r.PathValue("shift")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", schedule.ErrUnknownShift, raw)
	}
	return n, nil
}

func (s *HTTPServer) written(w http.ResponseWriter, category string) {
	resp := WriteResponse{Revision: s.store.Revision()}
	if category != "" {
		if cs, ok := s.store.Schedules()[category]; ok {
			resp.Warnings = schedule.Validate(schedule.ScheduleMap{category: cs})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PUT /api/admin/schedules/{category}
func (s *HTTPServer) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_put_schedule")

	var raw schedule.RawCategorySchedule
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category := r.PathValue("category")
	if err := s.store.PutSchedule(r.Context(), category, raw); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// PUT /api/admin/schedules/{category}/enabled
func (s *HTTPServer) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_enabled")

	enabled, ok := s.decodeEnabled(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")
	if err := s.store.SetCategoryEnabled(r.Context(), category, enabled); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// PUT /api/admin/schedules/{category}/days/{day}
func (s *HTTPServer) handleSetDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_day")

	day, err := schedule.ParseWeekday(r.PathValue("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	enabled, ok := s.decodeEnabled(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")
	if err := s.store.SetDay(r.Context(), category, day, enabled); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// PUT /api/admin/schedules/{category}/shifts/{shift}/enabled
func (s *HTTPServer) handleSetShiftEnabled(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_shift_enabled")

	n, err := shiftParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	enabled, ok := s.decodeEnabled(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")
	if err := s.store.SetShiftEnabled(r.Context(), category, n, enabled); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// PUT /api/admin/schedules/{category}/shifts/{shift}/label
func (s *HTTPServer) handleSetShiftLabel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_shift_label")

	n, err := shiftParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req labelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category := r.PathValue("category")
	if err := s.store.SetShiftLabel(r.Context(), category, n, req.Label); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// handleSetShiftTimes changes the given time fields of one shift in a single write.
// PUT /api/admin/schedules/{category}/shifts/{shift}/times
func (s *HTTPServer) handleSetShiftTimes(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_shift_times")

	n, err := shiftParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ShiftTimesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fields := []struct {
		field schedule.ShiftField
		value *string
	}{
		{schedule.FieldOrderStart, req.OrderStart},
		{schedule.FieldOrderEnd, req.OrderEnd},
		{schedule.FieldDeliveryEnd, req.DeliveryEnd},
	}
	changed := false
	for _, f := range fields {
		changed = changed || f.value != nil
	}
	if !changed {
		writeError(w, http.StatusBadRequest, "no time fields given")
		return
	}

	category := r.PathValue("category")
	err = s.store.Update(r.Context(), category, func(cs *schedule.CategorySchedule) error {
		for _, f := range fields {
			if f.value == nil {
				continue
			}
			if err := cs.SetShiftTime(n, f.field, *f.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, category)
}

// PUT /api/admin/hours
func (s *HTTPServer) handleSetHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_set_hours")

	var hours schedule.GlobalHours
	if err := decodeJSON(w, r, &hours); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.SetGlobalHours(r.Context(), hours); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.written(w, "")
}

// handleRefresh re-reads the stored configuration, e.g. after the realtime
// subscription dropped.
// POST /api/admin/refresh
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_refresh")

	if err := s.store.Refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("schedule refresh failed")
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	s.written(w, "")
}

// GET /api/admin/revisions?limit=N
func (s *HTTPServer) handleRevisions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_revisions")

	if s.revisions == nil {
		writeError(w, http.StatusNotFound, "revision history unavailable")
		return
	}

	limit := defaultRevisionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRevisionsLimit)
	}

	revisions, err := s.revisions.ListRevisions(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list revisions failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

// handleExport returns the current schedules and recent revisions as a spreadsheet.
// GET /api/admin/schedules/export
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")

	var revisions []repository.Revision
	if s.revisions != nil {
		var err error
		revisions, err = s.revisions.ListRevisions(r.Context(), maxRevisionsLimit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("export without revision history")
		}
	}

	var buf bytes.Buffer
	if err := export.WriteSchedules(&buf, s.store.Record(), revisions); err != nil {
		s.logger.Error().Err(err).Msg("schedule export failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("horarios_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
