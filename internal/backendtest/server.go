// Package backendtest runs an in-memory stand-in for the food shop REST backend.
// It follows the real backend's rules closely enough for end-to-end tests:
// decrease at quantity 1 is a no-op, removing the last line drops the promo,
// one draw per day, and order creation empties the cart.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type product struct {
	id        int64
	name      string
	slug      string
	price     decimal.Decimal
	available bool
}

type cartLine struct {
	id       int64
	product  *product
	quantity int
}

type promo struct {
	code      string
	percent   int
	used      bool
	createdAt time.Time
	expiresAt time.Time
}

type order struct {
	id        int64
	address   string
	total     decimal.Decimal
	lines     []cartLine
	promo     *promo
	createdAt time.Time
}

type failure struct {
	status int
	body   interface{}
}

// Server is the fake backend. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	nextID   int64
	products map[string]*product
	lines    []cartLine
	applied  *promo
	promos   []*promo
	drawnDay string
	draws    []int
	orders   []order
	profile  gin.H
	failures map[string]failure
	hook     func(method, path string)
	requests map[string]int
	now      func() time.Time
}

// New starts a fake backend accepting `Token <token>` credentials
func New(token string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		token:    token,
		products: make(map[string]*product),
		failures: make(map[string]failure),
		requests: make(map[string]int),
		now:      time.Now,
		profile: gin.H{
			"id":         1,
			"username":   "shopper",
			"email":      "shopper@example.com",
			"first_name": "",
			"last_name":  "",
			"address":    "",
		},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(s.middleware)

	r.GET("/cart/", s.getCart)
	r.POST("/cart/add/", s.addItem)
	r.POST("/cart/decrease/", s.decreaseItem)
	r.POST("/cart/remove/", s.removeItem)
	r.POST("/cart/clear/", s.clearCart)
	r.POST("/cart/apply-promo/", s.applyPromo)
	r.POST("/cart/remove-promo/", s.removePromo)
	r.GET("/promo-codes/", s.listPromos)
	r.GET("/promo-codes/has_attempt/", s.hasAttempt)
	r.GET("/promo-codes/current/", s.currentPromo)
	r.GET("/orders/", s.listOrders)
	r.POST("/orders/create-from-cart/", s.createOrder)
	r.GET("/users/me/", s.getProfile)
	r.PATCH("/users/me/", s.patchProfile)

	return r
}

func (s *Server) middleware(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	s.requests[key]++
	hook := s.hook
	fail, failing := s.failures[key]
	delete(s.failures, key)
	s.mu.Unlock()

	if hook != nil {
		hook(c.Request.Method, c.Request.URL.Path)
	}

	if c.GetHeader("Authorization") != "Token "+s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	if failing {
		if fail.body == nil {
			c.AbortWithStatus(fail.status)
			return
		}
		c.AbortWithStatusJSON(fail.status, fail.body)
		return
	}
	c.Next()
}

// AddProduct registers a catalog product
func (s *Server) AddProduct(slug, name, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.products[slug] = &product{
		id:        s.nextID,
		name:      name,
		slug:      slug,
		price:     decimal.RequireFromString(price),
		available: true,
	}
}

// SetAvailable toggles product availability
func (s *Server) SetAvailable(slug string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[slug].available = available
}

// IssuePromo creates a promo code owned by the user
func (s *Server) IssuePromo(code string, percent int, expiresAt time.Time, used bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos = append([]*promo{{
		code:      code,
		percent:   percent,
		used:      used,
		createdAt: s.now(),
		expiresAt: expiresAt,
	}}, s.promos...)
}

// QueueDraws sets the discounts the next draws will hand out, in order
func (s *Server) QueueDraws(percents ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws = append(s.draws, percents...)
}

// ResetDailyAttempt gives the user a fresh attempt, as if the day rolled over
func (s *Server) ResetDailyAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawnDay = ""
}

// FailNext makes the next request to method+path answer with status and body.
// A nil body sends no content.
func (s *Server) FailNext(method, path string, status int, body interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// SetHook installs a function run before every request is handled
func (s *Server) SetHook(hook func(method, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// SetProfile overwrites profile fields
func (s *Server) SetProfile(firstName, lastName, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile["first_name"] = firstName
	s.profile["last_name"] = lastName
	s.profile["address"] = address
}

// Requests counts requests received for method+path
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// Quantity returns the server-side quantity of a product, 0 when absent
func (s *Server) Quantity(slug string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines {
		if line.product.slug == slug {
			return line.quantity
		}
	}
	return 0
}

// OrderCount returns how many orders were created
func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Server) subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.product.price.Mul(decimal.NewFromInt(int64(line.quantity))))
	}
	return total
}

func (s *Server) discount(subtotal decimal.Decimal) decimal.Decimal {
	if s.applied == nil {
		return decimal.Zero
	}
	return subtotal.Mul(decimal.NewFromInt(int64(s.applied.percent))).Div(decimal.NewFromInt(100)).Round(2)
}

func productJSON(p *product) gin.H {
	return gin.H{
		"id":           p.id,
		"name":         p.name,
		"slug":         p.slug,
		"description":  "",
		"price":        p.price.StringFixed(2),
		"is_available": p.available,
	}
}

func promoJSON(p *promo) interface{} {
	if p == nil {
		return nil
	}
	return gin.H{
		"code":             p.code,
		"discount_percent": p.percent,
		"expires_at":       p.expiresAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) cartJSON() gin.H {
	items := make([]gin.H, 0, len(s.lines))
	for _, line := range s.lines {
		items = append(items, gin.H{
			"id":             line.id,
			"product":        line.product.name,
			"product_detail": productJSON(line.product),
			"quantity":       line.quantity,
		})
	}
	subtotal := s.subtotal()
	discount := s.discount(subtotal)
	total, _ := subtotal.Sub(discount).Round(2).Float64()
	sub, _ := subtotal.Float64()
	disc, _ := discount.Float64()
	return gin.H{
		"id":              1,
		"user":            s.profile["username"],
		"items":           items,
		"promo_code":      promoJSON(s.applied),
		"discount_amount": disc,
		"subtotal":        sub,
		"total":           total,
		"created_at":      "2025-05-18T00:57:00Z",
	}
}

func (s *Server) getCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.cartJSON())
}

type productBody struct {
	Product string `json:"product"`
}

func (s *Server) bindProduct(c *gin.Context) (*product, bool) {
	var body productBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Product == "" {
		c.JSON(http.StatusBadRequest, gin.H{"product": []string{"This field is required."}})
		return nil, false
	}
	p, ok := s.products[body.Product]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"product": []string{fmt.Sprintf("Object with slug=%s does not exist.", body.Product)}})
		return nil, false
	}
	return p, true
}

func (s *Server) lineIndex(slug string) int {
	for i, line := range s.lines {
		if line.product.slug == slug {
			return i
		}
	}
	return -1
}

func (s *Server) addItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.bindProduct(c)
	if !ok {
		return
	}
	i := s.lineIndex(p.slug)
	if i == -1 {
		s.nextID++
		s.lines = append(s.lines, cartLine{id: s.nextID, product: p, quantity: 1})
		i = len(s.lines) - 1
	} else {
		s.lines[i].quantity++
	}
	c.JSON(http.StatusOK, gin.H{"id": s.lines[i].id, "product": p.name, "quantity": s.lines[i].quantity})
}

func (s *Server) decreaseItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.bindProduct(c)
	if !ok {
		return
	}
	i := s.lineIndex(p.slug)
	if i == -1 {
		c.JSON(http.StatusBadRequest, []string{"Продукт отсутствует в корзине"})
		return
	}
	if s.lines[i].quantity > 1 {
		s.lines[i].quantity--
	}
	c.JSON(http.StatusOK, gin.H{"id": s.lines[i].id, "product": p.name, "quantity": s.lines[i].quantity})
}

func (s *Server) removeItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.bindProduct(c)
	if !ok {
		return
	}
	i := s.lineIndex(p.slug)
	if i == -1 {
		c.JSON(http.StatusBadRequest, []string{"Продукт отсутствует в корзине"})
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	if len(s.lines) == 0 {
		s.applied = nil
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (s *Server) clearCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.applied = nil
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) applyPromo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": []string{"This field is required."}})
		return
	}
	var found *promo
	for _, p := range s.promos {
		if p.code == body.Code {
			found = p
			break
		}
	}
	if found == nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": []string{"Промокод не найден"}})
		return
	}
	if found.used || !s.now().Before(found.expiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"code": []string{"Промокод недействителен или уже использован"}})
		return
	}
	s.applied = found
	c.JSON(http.StatusOK, s.cartJSON())
}

func (s *Server) removePromo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = nil
	c.JSON(http.StatusOK, s.cartJSON())
}

func (s *Server) listPromos(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]interface{}, 0, len(s.promos))
	for _, p := range s.promos {
		if !p.used && now.Before(p.expiresAt) {
			out = append(out, promoJSON(p))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) hasAttempt(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"has_attempt": s.drawnDay != s.now().Format("2006-01-02")})
}

func (s *Server) currentPromo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := now.Format("2006-01-02")
	if s.drawnDay == today && len(s.promos) > 0 {
		c.JSON(http.StatusOK, promoJSON(s.promos[0]))
		return
	}

	percent := 10
	if len(s.draws) > 0 {
		percent = s.draws[0]
		s.draws = s.draws[1:]
	}
	s.nextID++
	p := &promo{
		code:      fmt.Sprintf("DRAW%04d", s.nextID),
		percent:   percent,
		used:      percent == 0,
		createdAt: now,
		expiresAt: now.Add(24 * time.Hour),
	}
	s.promos = append([]*promo{p}, s.promos...)
	s.drawnDay = today
	c.JSON(http.StatusOK, promoJSON(p))
}

func (s *Server) orderJSON(o order) gin.H {
	items := make([]gin.H, 0, len(o.lines))
	for _, line := range o.lines {
		items = append(items, gin.H{
			"id":             line.id,
			"product":        line.product.name,
			"quantity":       line.quantity,
			"price_per_item": line.product.price.StringFixed(2),
		})
	}
	return gin.H{
		"id":               o.id,
		"user":             s.profile["username"],
		"delivery_address": o.address,
		"created_at":       o.createdAt.UTC().Format(time.RFC3339),
		"total_price":      o.total.StringFixed(2),
		"items":            items,
		"promo_code":       promoJSON(o.promo),
	}
}

func (s *Server) listOrders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.orderJSON(o))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Корзина пуста"})
		return
	}
	for _, line := range s.lines {
		if !line.product.available {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Продукт %s недоступен", line.product.name)})
			return
		}
	}

	var body struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		DeliveryAddress string `json:"delivery_address"`
	}
	_ = c.ShouldBindJSON(&body)
	if strings.TrimSpace(body.FirstName) == "" || strings.TrimSpace(body.LastName) == "" || strings.TrimSpace(body.DeliveryAddress) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Необходимо заполнить адрес доставки, имя и фамилию."})
		return
	}

	subtotal := s.subtotal()
	s.nextID++
	o := order{
		id:        s.nextID,
		address:   body.DeliveryAddress,
		total:     subtotal.Sub(s.discount(subtotal)),
		lines:     append([]cartLine(nil), s.lines...),
		promo:     s.applied,
		createdAt: s.now(),
	}
	s.orders = append(s.orders, o)
	if s.applied != nil {
		s.applied.used = true
	}
	s.lines = nil
	s.applied = nil

	c.JSON(http.StatusCreated, s.orderJSON(o))
}

func (s *Server) getProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.profile)
}

func (s *Server) patchProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
		return
	}
	for key, value := range body {
		switch key {
		case "first_name", "last_name", "address":
			s.profile[key] = value
		}
	}
	c.JSON(http.StatusOK, s.profile)
}
