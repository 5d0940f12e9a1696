package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/core/service"
	"github.com/rebite/rebite/internal/listingquery"
	"github.com/rebite/rebite/internal/port"
)

type HTTPHandler struct {
	listings *service.ListingService
	orders   *service.OrderService
	points   *service.PointsService
}

func NewHTTPHandler(listings *service.ListingService, orders *service.OrderService, points *service.PointsService) *HTTPHandler {
	return &HTTPHandler{listings: listings, orders: orders, points: points}
}

// Register wires the route table onto a mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/listings", h.Listings)
	mux.HandleFunc("/api/orders", h.PlaceOrder)
	mux.HandleFunc("/api/orders/cancel", h.CancelOrder)
	mux.HandleFunc("/api/orders/status", h.UpdateOrderStatus)
	mux.HandleFunc("/api/points/earn", h.EarnPoints)
	mux.HandleFunc("/api/points/spend", h.SpendPoints)
	mux.HandleFunc("/api/points/transfer", h.TransferPoints)
	mux.HandleFunc("/api/points/donate", h.DonatePoints)
	mux.HandleFunc("/api/points/balance", h.PointsBalance)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *HTTPHandler) Listings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.searchListings(w, r)
	case http.MethodPost:
		h.createListing(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) searchListings(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.listings.Search(r.Context(), filters)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type createListingRequest struct {
	VendorID           string   `json:"vendor_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	PriceCents         int64    `json:"price_cents"`
	OriginalPriceCents int64    `json:"original_price_cents"`
	Quantity           int      `json:"quantity"`
	Unit               string   `json:"unit"`
	ExpiryDate         string   `json:"expiry_date"`
	DietaryTags        []string `json:"dietary_tags"`
	Allergens          []string `json:"allergens"`
	Lat                float64  `json:"lat"`
	Lng                float64  `json:"lng"`
}

func (h *HTTPHandler) createListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expiry, err := time.Parse(time.RFC3339, req.ExpiryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "expiry_date must be RFC3339")
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), service.CreateListingInput{
		VendorID:           req.VendorID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		PriceCents:         req.PriceCents,
		OriginalPriceCents: req.OriginalPriceCents,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		ExpiryDate:         expiry,
		DietaryTags:        req.DietaryTags,
		Allergens:          req.Allergens,
		Location:           domain.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

type placeOrderRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Items     []struct {
		ListingID string `json:"listing_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLine{ListingID: item.ListingID, Quantity: item.Quantity})
	}

	order, err := h.orders.Place(r.Context(), req.RequestID, req.UserID, lines)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, order)
}

type orderActionRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status,omitempty"`
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req orderActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.Cancel(r.Context(), req.OrderID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "order cancelled"})
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req orderActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), req.OrderID, req.Status); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "status updated"})
}

type pointsRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	ToUserID  string `json:"to_user_id"`
	CharityID string `json:"charity_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

func (h *HTTPHandler) EarnPoints(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePoints(w, r)
	if !ok {
		return
	}
	tx, err := h.points.Earn(r.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *HTTPHandler) SpendPoints(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePoints(w, r)
	if !ok {
		return
	}
	tx, err := h.points.Spend(r.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *HTTPHandler) TransferPoints(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePoints(w, r)
	if !ok {
		return
	}
	err := h.points.Transfer(r.Context(), req.RequestID, req.UserID, req.ToUserID, req.Amount, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "transfer complete"})
}

func (h *HTTPHandler) DonatePoints(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePoints(w, r)
	if !ok {
		return
	}
	err := h.points.Donate(r.Context(), req.RequestID, req.UserID, req.CharityID, req.Amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "donation complete"})
}

func (h *HTTPHandler) PointsBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id")
		return
	}

	balance, err := h.points.Balance(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "balance": balance})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodePoints(w http.ResponseWriter, r *http.Request) (pointsRequest, bool) {
	var req pointsRequest
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// parseFilters maps query parameters onto the listing filter set. Malformed
// numbers are rejected here; enum validation happens in Normalize.
func parseFilters(r *http.Request) (listingquery.Filters, error) {
	q := r.URL.Query()
	f := listingquery.Filters{
		SearchText: q.Get("search"),
		Category:   q.Get("category"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	var err error
	if v := q.Get("price_min"); v != "" {
		if f.PriceMinCents, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, errors.New("price_min must be an integer")
		}
		f.HasPriceMin = true
	}
	if v := q.Get("price_max"); v != "" {
		if f.PriceMaxCents, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, errors.New("price_max must be an integer")
		}
		f.HasPriceMax = true
	}
	if v := q.Get("dietary_tags"); v != "" {
		f.DietaryTags = strings.Split(v, ",")
	}
	if v := q.Get("exclude_allergens"); v != "" {
		f.ExcludeAllergens = strings.Split(v, ",")
	}
	if v := q.Get("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil {
			return f, errors.New("page must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errors.New("limit must be an integer")
		}
	}

	lat, lng := q.Get("lat"), q.Get("lng")
	if lat != "" || lng != "" {
		if lat == "" || lng == "" {
			return f, errors.New("lat and lng must be provided together")
		}
		var p domain.Point
		if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
			return f, errors.New("lat must be a number")
		}
		if p.Lng, err = strconv.ParseFloat(lng, 64); err != nil {
			return f, errors.New("lng must be a number")
		}
		f.Origin = &p
	}
	if v := q.Get("max_distance_km"); v != "" {
		if f.MaxDistanceKm, err = strconv.ParseFloat(v, 64); err != nil {
			return f, errors.New("max_distance_km must be a number")
		}
	}

	return f, nil
}

// writeServiceError maps sentinel errors onto HTTP statuses.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrSelfTransfer),
		errors.Is(err, listingquery.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrRecipientNotFound),
		errors.Is(err, service.ErrCharityNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, port.ErrConflict),
		errors.Is(err, port.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, port.ErrInsufficientQuantity):
		writeError(w, http.StatusGone, "sold out")
	case errors.Is(err, port.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient balance")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
