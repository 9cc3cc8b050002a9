package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/router"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const testSecret = "test-secret"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenGorm("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	store := database.NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	t.Cleanup(func() { store.Close(context.Background()) })

	cfg := &config.Config{
		GinMode:           gin.TestMode,
		JWTSecret:         testSecret,
		CORSOrigins:       []string{"http://localhost:3000"},
		PublicBaseURL:     "https://shop.example",
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		StrictTransitions: true,
	}
	carts := services.NewCartService(store)
	orders := services.NewOrderService(store, carts, services.OrderServiceOptions{
		StrictTransitions: true,
		PublicBaseURL:     cfg.PublicBaseURL,
	})
	return router.SetupRouter(router.Dependencies{
		Config:        cfg,
		Carts:         carts,
		Orders:        orders,
		Catalog:       services.NewCatalogService(store),
		Notifications: services.NewNotificationService(store),
		Hub:           kds.NewHub(),
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.CustomClaims{
		Role: utils.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a JSON request. headers alternate key, value.
func do(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

var riceItem = map[string]interface{}{
	"foodId":          "F1",
	"name":            "Rice",
	"price":           500,
	"quantity":        2,
	"selectedPortion": map[string]interface{}{"index": 0, "label": "Large", "price": 500},
}

var checkoutBody = map[string]interface{}{
	"customerName":  "Asha",
	"customerPhone": "+911234567890",
	"address":       "12 Lake Road",
}

type cartResp struct {
	Lines []struct {
		FoodID     string  `json:"foodId"`
		Quantity   int     `json:"quantity"`
		TotalPrice float64 `json:"totalPrice"`
	} `json:"lines"`
	ItemCount   int     `json:"itemCount"`
	TotalAmount float64 `json:"totalAmount"`
}

type orderResp struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Status     string  `json:"status"`
	GrandTotal float64 `json:"grandTotal"`
}

func TestGuestIDIsIssued(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Guest-ID"))

	w = do(r, http.MethodGet, "/cart", nil, "X-Guest-ID", "guest-42")
	assert.Equal(t, "guest-42", w.Header().Get("X-Guest-ID"))

	var cart cartResp
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines)
}

func TestCartEndpoints(t *testing.T) {
	r := setupRouter(t)
	guest := []string{"X-Guest-ID", "guest-1"}

	w := do(r, http.MethodPost, "/cart/items", riceItem, guest...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	one := riceItem
	w = do(r, http.MethodPost, "/cart/items", map[string]interface{}{
		"foodId": one["foodId"], "name": one["name"], "price": 500, "quantity": 1,
		"selectedPortion": one["selectedPortion"],
	}, guest...)
	require.Equal(t, http.StatusOK, w.Code)

	var cart cartResp
	decode(t, w, &cart)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, 1500.0, cart.TotalAmount)

	w = do(r, http.MethodGet, "/cart/summary", nil, guest...)
	var summary cartResp
	decode(t, w, &summary)
	assert.Equal(t, 3, summary.ItemCount)

	w = do(r, http.MethodPatch, "/cart/items/F1", map[string]int{"quantity": 0}, guest...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/cart/items/F9", map[string]int{"quantity": 2}, guest...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPatch, "/cart/items/F1", map[string]int{"quantity": 5}, guest...)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cart)
	assert.Equal(t, 2500.0, cart.TotalAmount)

	w = do(r, http.MethodDelete, "/cart/items/F1?portion=abc", nil, guest...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/cart/items/F1?portion=0", nil, guest...)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0.0, cart.TotalAmount)

	// removing again is still fine
	w = do(r, http.MethodDelete, "/cart/items/F1", nil, guest...)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/cart/items", map[string]interface{}{"foodId": "F1", "name": "Rice"}, "X-Guest-ID", "g")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/cart/items", map[string]interface{}{
		"foodId": "F1", "name": "Rice", "price": 10, "quantity": 0,
	}, "X-Guest-ID", "g")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, _ := http.NewRequest(http.MethodPost, "/cart/items", strings.NewReader("{not json"))
	req.Header.Set("X-Guest-ID", "g")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutAndCancel(t *testing.T) {
	r := setupRouter(t)
	owner := []string{"X-Guest-ID", "owner"}

	w := do(r, http.MethodPost, "/orders", checkoutBody, owner...)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	do(r, http.MethodPost, "/cart/items", riceItem, owner...)
	w = do(r, http.MethodPost, "/orders", checkoutBody, owner...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order orderResp
	decode(t, w, &order)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, 1000.0, order.GrandTotal)

	var cart cartResp
	decode(t, do(r, http.MethodGet, "/cart", nil, owner...), &cart)
	assert.Empty(t, cart.Lines)

	w = do(r, http.MethodGet, "/orders/"+order.ID, nil, "X-Guest-ID", "stranger")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/orders/"+order.ID+"/cancel", nil, "X-Guest-ID", "stranger")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/orders/"+order.ID+"/cancel", nil, owner...)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	assert.Equal(t, "cancelled", order.Status)

	w = do(r, http.MethodPost, "/orders/"+order.ID+"/cancel", nil, owner...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/orders/does-not-exist", nil, owner...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var mine []orderResp
	decode(t, do(r, http.MethodGet, "/orders", nil, owner...), &mine)
	assert.Len(t, mine, 1)
}

func TestOrderQR(t *testing.T) {
	r := setupRouter(t)
	owner := []string{"X-Guest-ID", "owner"}
	do(r, http.MethodPost, "/cart/items", riceItem, owner...)
	var order orderResp
	decode(t, do(r, http.MethodPost, "/orders", checkoutBody, owner...), &order)

	w := do(r, http.MethodGet, "/orders/"+order.ID+"/qr", nil, owner...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestAdminRequiresToken(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/admin/orders", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOrderStatus(t *testing.T) {
	r := setupRouter(t)
	auth := []string{"Authorization", "Bearer " + adminToken(t)}
	owner := []string{"X-Guest-ID", "owner"}

	do(r, http.MethodPost, "/cart/items", riceItem, owner...)
	var order orderResp
	decode(t, do(r, http.MethodPost, "/orders", checkoutBody, owner...), &order)
	statusPath := "/admin/orders/" + order.ID + "/status"

	w := do(r, http.MethodPatch, statusPath, map[string]string{"status": "shipped"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, statusPath, map[string]string{"status": "ready"}, auth...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPatch, statusPath, map[string]string{"status": "confirmed"}, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, "confirmed", order.Status)

	var list []orderResp
	decode(t, do(r, http.MethodGet, "/admin/orders?status=confirmed", nil, auth...), &list)
	assert.Len(t, list, 1)

	w = do(r, http.MethodGet, "/admin/orders?limit=x", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stats services.OrderStats
	decode(t, do(r, http.MethodGet, "/admin/orders/stats", nil, auth...), &stats)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Counts["confirmed"])
}

func TestCatalogEndpoints(t *testing.T) {
	r := setupRouter(t)
	auth := []string{"Authorization", "Bearer " + adminToken(t)}

	w := do(r, http.MethodPost, "/admin/categories", map[string]interface{}{
		"name":                 "Curries",
		"allowedPortionLabels": []string{"Half", "Full"},
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cat struct {
		ID string `json:"id"`
	}
	decode(t, w, &cat)

	w = do(r, http.MethodPost, "/admin/categories", map[string]string{"name": "curries"}, auth...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/admin/menus", map[string]interface{}{
		"categoryId": cat.ID,
		"name":       "Dal",
		"portions":   []map[string]interface{}{{"label": "Jumbo", "price": 400}},
	}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/admin/menus", map[string]interface{}{
		"categoryId": cat.ID,
		"name":       "Dal",
		"portions": []map[string]interface{}{
			{"label": "Half", "price": "200", "discount": map[string]interface{}{"active": true, "kind": "percent", "value": 10}},
			{"label": "Full", "price": 350},
		},
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var menu struct {
		ID       string `json:"id"`
		Portions []struct {
			Label          string  `json:"label"`
			EffectivePrice float64 `json:"effectivePrice"`
		} `json:"portions"`
	}
	decode(t, w, &menu)
	require.Len(t, menu.Portions, 2)
	assert.Equal(t, 180.0, menu.Portions[0].EffectivePrice)

	var menus []json.RawMessage
	decode(t, do(r, http.MethodGet, "/menus?category="+cat.ID, nil), &menus)
	assert.Len(t, menus, 1)

	w = do(r, http.MethodGet, "/menus/"+menu.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/menus/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/admin/menus", map[string]interface{}{
		"categoryId": "nope", "name": "Naan", "price": 40,
	}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/admin/categories/"+cat.ID, map[string]interface{}{"name": "Gravies"}, auth...)
	assert.Equal(t, http.StatusOK, w.Code)

	var cats []struct {
		Name string `json:"name"`
	}
	decode(t, do(r, http.MethodGet, "/categories", nil), &cats)
	require.Len(t, cats, 1)
	assert.Equal(t, "Gravies", cats[0].Name)
}

func TestNotificationsEndpoint(t *testing.T) {
	r := setupRouter(t)
	auth := []string{"Authorization", "Bearer " + adminToken(t)}

	w := do(r, http.MethodGet, "/admin/notifications", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w, nil)
	assert.True(t, env.Status)
}
