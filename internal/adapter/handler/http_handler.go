package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/core/service"
	"github.com/lhchen/storefront/internal/pkg/validate"
)

// HTTPHandler exposes the cart core to the presentation layer. It translates
// JSON requests into service calls and business rejections into 4xx results;
// it holds no state of its own.
type HTTPHandler struct {
	cart      *service.CartService
	favorites *service.FavoritesService
	catalog   *service.CatalogService
}

func NewHTTPHandler(cart *service.CartService, favorites *service.FavoritesService, catalog *service.CatalogService) *HTTPHandler {
	return &HTTPHandler{cart: cart, favorites: favorites, catalog: catalog}
}

// Register wires every route onto mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)

	mux.HandleFunc("/api/cart", h.GetCart)
	mux.HandleFunc("/api/cart/add", h.AddToCart)
	mux.HandleFunc("/api/cart/quantity", h.SetQuantity)
	mux.HandleFunc("/api/cart/remove", h.Remove)
	mux.HandleFunc("/api/cart/batch-remove", h.BatchRemove)
	mux.HandleFunc("/api/cart/clear", h.ClearCart)
	mux.HandleFunc("/api/cart/select", h.Select)
	mux.HandleFunc("/api/cart/select-all", h.SelectAll)
	mux.HandleFunc("/api/cart/coupon", h.ApplyCoupon)
	mux.HandleFunc("/api/cart/move-to-favorites", h.MoveToFavorites)
	mux.HandleFunc("/api/cart/checkout", h.Checkout)

	mux.HandleFunc("/api/favorites", h.ListFavorites)
	mux.HandleFunc("/api/favorites/toggle", h.ToggleFavorite)

	mux.HandleFunc("/api/products", h.ListProducts)
	mux.HandleFunc("/api/product", h.GetProduct)
	mux.HandleFunc("/api/recommendations", h.Recommendations)
	mux.HandleFunc("/api/search/suggest", h.SearchSuggestions)
	mux.HandleFunc("/api/reviews", h.Reviews)
	mux.HandleFunc("/api/questions", h.SubmitQuestion)
}

type keyRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Storage   string `json:"storage"`
}

func (k keyRequest) toKey() domain.VariantKey {
	return domain.VariantKey{ProductID: k.ProductID, Color: k.Color, Storage: k.Storage}
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type cartResponse struct {
	Items     []domain.LineItem `json:"items"`
	Totals    domain.Totals     `json:"totals"`
	ItemCount int               `json:"item_count"`
	Selected  []keyRequest      `json:"selected"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := h.cart.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	totals, err := h.cart.Totals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := cartResponse{Items: items, Totals: totals}
	for _, li := range items {
		resp.ItemCount += li.Quantity
	}
	for _, k := range h.cart.SelectedKeys() {
		resp.Selected = append(resp.Selected, keyRequest{ProductID: k.ProductID, Color: k.Color, Storage: k.Storage})
	}
	writeJSON(w, http.StatusOK, resp)
}

type addRequest struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	ImageRef       string          `json:"image_ref"`
	Quantity       int             `json:"quantity"`
	Color          string          `json:"color"`
	Storage        string          `json:"storage"`
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.ProductID == "" || req.Name == "" || req.UnitPrice.IsNegative() {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "missing required fields"})
		return
	}

	li, err := h.cart.Add(r.Context(), service.AddInput{
		ProductID:      req.ProductID,
		Name:           req.Name,
		UnitPrice:      req.UnitPrice,
		ReferencePrice: req.ReferencePrice,
		ImageRef:       req.ImageRef,
		Quantity:       req.Quantity,
		Color:          req.Color,
		Storage:        req.Storage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

type quantityRequest struct {
	keyRequest
	Quantity int `json:"quantity"`
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodePost(w, r, &req) {
		return
	}
	if err := h.cart.SetQuantity(r.Context(), req.toKey(), req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "quantity updated"})
}

func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decodePost(w, r, &req) {
		return
	}
	removed, err := h.cart.Remove(r.Context(), req.toKey())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type batchRequest struct {
	Items []keyRequest `json:"items"`
}

func (b batchRequest) toKeys() []domain.VariantKey {
	keys := make([]domain.VariantKey, 0, len(b.Items))
	for _, it := range b.Items {
		keys = append(keys, it.toKey())
	}
	return keys
}

func (h *HTTPHandler) BatchRemove(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodePost(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "no items given"})
		return
	}
	removed, err := h.cart.RemoveMany(r.Context(), req.toKeys())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "cart cleared"})
}

type selectRequest struct {
	keyRequest
	Selected bool `json:"selected"`
}

func (h *HTTPHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodePost(w, r, &req) {
		return
	}
	if err := h.cart.Select(r.Context(), req.toKey(), req.Selected); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "selection updated"})
}

func (h *HTTPHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected bool `json:"selected"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	if err := h.cart.SelectAll(r.Context(), req.Selected); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "selection updated"})
}

type couponRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	MinimumSpend decimal.Decimal `json:"minimum_spend"`
}

func (h *HTTPHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid coupon amount"})
		return
	}
	min := req.MinimumSpend
	if min.IsZero() {
		min = domain.DefaultMinimumSpend
	}

	if err := h.cart.ApplyCoupon(r.Context(), req.Amount, min); err != nil {
		if errors.Is(err, service.ErrCouponMinimum) {
			writeJSON(w, http.StatusUnprocessableEntity, statusResponse{
				Message: "order must reach " + min.StringFixed(2) + " to use this coupon",
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "coupon applied"})
}

func (h *HTTPHandler) MoveToFavorites(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodePost(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "no items given"})
		return
	}
	moved, added, err := h.cart.MoveToFavorites(r.Context(), req.toKeys())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved, "favorites_added": added})
}

type checkoutRequest struct {
	RequestID string `json:"request_id"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.RequestID == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "missing request_id"})
		return
	}

	order, err := h.cart.Checkout(r.Context(), req.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNothingSelected):
			writeJSON(w, http.StatusBadRequest, statusResponse{Message: "select items before checkout"})
		case errors.Is(err, service.ErrDuplicateRequest):
			writeJSON(w, http.StatusConflict, statusResponse{Message: "duplicate request"})
		default:
			writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids, err := h.favorites.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"favorites": ids})
}

func (h *HTTPHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "missing product_id"})
		return
	}
	favorited, err := h.favorites.Toggle(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "missing id"})
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	products, err := h.catalog.Recommendations(r.Context(), n)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) SearchSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.catalog.SearchSuggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *HTTPHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	reviews, total, err := h.catalog.Reviews(r.Context(), q.Get("product_id"), page, perPage)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews, "total": total})
}

type questionRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Content string `json:"content"`
}

func (h *HTTPHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "question content is required"})
		return
	}
	if req.Email != "" && !validate.Email(req.Email) {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid email"})
		return
	}
	if req.Phone != "" && !validate.Phone(req.Phone) {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid phone number"})
		return
	}

	// Questions are display-only in the mock storefront, log and accept.
	log.Printf("question received: %q", req.Content)
	writeJSON(w, http.StatusAccepted, statusResponse{Success: true, Message: "question submitted"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	log.Printf("request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, statusResponse{Message: "internal error"})
}

// writeCatalogError maps simulated-fetch failures to retryable responses; the
// caller keeps its current state and may simply re-invoke.
func writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, statusResponse{Message: "product not found"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, statusResponse{Message: "catalog unavailable, try again"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
