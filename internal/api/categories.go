package api

import (
	"net/http"

	"storefront/internal/availability"
	"storefront/internal/metrics"
	"storefront/internal/schedule"
)

// CategoryResponse is the response for GET /api/categories/{category}.
type CategoryResponse struct {
	Category string            `json:"category"`
	Info     availability.Info `json:"info"`
	Next     *schedule.Opening `json:"next,omitempty"`
}

// CartWindowRequest is the request body for POST /api/cart/window.
type CartWindowRequest struct {
	Categories []string `json:"categories"`
}

// CartWindowResponse is the response for POST /api/cart/window.
type CartWindowResponse struct {
	Window schedule.EffectiveWindow `json:"window"`
	Empty  bool                     `json:"empty"`
	Slots  []string                 `json:"slots"`
}

// handleCategories returns the status of every configured category.
// GET /api/categories
func (s *HTTPServer) handleCategories(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("categories")
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":     s.service.Statuses(),
		"revision":       s.store.Revision(),
		"realtimeActive": s.store.RealtimeActive(),
	})
}

// GET /api/categories/available
func (s *HTTPServer) handleAvailableCategories(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("categories_available")
	writeJSON(w, http.StatusOK, map[string][]string{
		"categories": s.service.AvailableMainCategories(),
	})
}

// GET /api/categories/{category}
func (s *HTTPServer) handleCategory(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("category")

	category := r.PathValue("category")
	resp := CategoryResponse{
		Category: category,
		Info:     s.service.UnavailabilityInfo(category),
	}
	if !resp.Info.Available && !resp.Info.NotConfigured && !resp.Info.Disabled {
		if next, ok := s.service.NextAvailable(category); ok {
			resp.Next = &next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCartWindow returns the delivery window and slots valid for every category
// in the cart.
// POST /api/cart/window
func (s *HTTPServer) handleCartWindow(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cart_window")

	var req CartWindowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	window := s.service.EffectiveWindow(req.Categories)
	slots := s.service.DeliverySlots(window)
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, CartWindowResponse{
		Window: window,
		Empty:  window.Empty(),
		Slots:  slots,
	})
}

// handleSchedules returns the current configuration in stored form.
// GET /api/schedules
func (s *HTTPServer) handleSchedules(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("schedules")
	writeJSON(w, http.StatusOK, s.store.Record())
}
