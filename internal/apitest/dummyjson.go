// Package apitest runs an in-process imitation of the DummyJSON auth and
// product endpoints for tests. Sessions are carried by the accessToken and
// refreshToken cookies exactly like the real service.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

const (
	Username = "emilys"
	Password = "emilyspass"
)

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Image     string `json:"image"`
}

var DefaultUser = User{
	ID:        1,
	Username:  Username,
	FirstName: "Emily",
	LastName:  "Johnson",
	Email:     "emily.johnson@x.dummyjson.com",
	Image:     "https://dummyjson.com/icon/emilys/128",
}

type Product struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Brand  string  `json:"brand"`
	SKU    string  `json:"sku"`
	Rating float64 `json:"rating"`
}

// DefaultProducts has twelve products, enough for three pages of five.
var DefaultProducts = []Product{
	{ID: 1, Title: "Essence Mascara Lash Princess", Price: 9.99, Brand: "Essence", SKU: "RCH45Q1A", Rating: 2.56},
	{ID: 2, Title: "Eyeshadow Palette with Mirror", Price: 19.99, Brand: "Glamour Beauty", SKU: "MVCFH27F", Rating: 2.86},
	{ID: 3, Title: "Powder Canister", Price: 14.99, Brand: "Velvet Touch", SKU: "9EN8WLT2", Rating: 4.64},
	{ID: 4, Title: "Red Lipstick", Price: 12.99, Brand: "Chic Cosmetics", SKU: "O5IF1NTA", Rating: 4.36},
	{ID: 5, Title: "Red Nail Polish", Price: 8.99, Brand: "Nail Couture", SKU: "YUIIIP4W", Rating: 4.32},
	{ID: 6, Title: "Calvin Klein CK One", Price: 49.99, Brand: "Calvin Klein", SKU: "DZM2JQZE", Rating: 4.37},
	{ID: 7, Title: "Chanel Coco Noir Eau De", Price: 129.99, Brand: "Chanel", SKU: "K71HBCGS", Rating: 4.26},
	{ID: 8, Title: "Dior J'adore", Price: 89.99, Brand: "Dior", SKU: "E70NB03B", Rating: 3.8},
	{ID: 9, Title: "Dolce Shine Eau de", Price: 69.99, Brand: "Dolce & Gabbana", SKU: "1NBFK980", Rating: 3.96},
	{ID: 10, Title: "Gucci Bloom Eau de", Price: 79.99, Brand: "Gucci", SKU: "FFKZ6HOF", Rating: 2.74},
	{ID: 11, Title: "Annibale Colombo Bed", Price: 1899.99, Brand: "Annibale Colombo", SKU: "4KMDTZWF", Rating: 4.77},
	{ID: 12, Title: "Annibale Colombo Sofa", Price: 2499.99, Brand: "Annibale Colombo", SKU: "30WGGRF4", Rating: 3.92},
}

// Server is the fake API. Call counters are read through Counts.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	products []Product
	access   map[string]bool
	refresh  map[string]bool

	refreshFails bool

	loginCalls   int
	meCalls      int
	refreshCalls int
	logoutCalls  int
	productCalls int
}

// Start runs the fake API until the test ends. Paths are served with the
// "/api" prefix.
func Start(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		products: DefaultProducts,
		access:   map[string]bool{},
		refresh:  map[string]bool{},
	}
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)

	return s
}

// ExpireAccess invalidates every access token, as if they timed out.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]bool{}
}

// FailRefresh makes every refresh call fail.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFails = fail
}

// Counts returns login, me, refresh, logout and product call counters.
func (s *Server) Counts() (login, me, refresh, logout, products int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls, s.meCalls, s.refreshCalls, s.logoutCalls, s.productCalls
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/me", s.me)
	mux.HandleFunc("POST /api/auth/refresh", s.doRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.logout)
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.HandleFunc("GET /api/products/search", s.listProducts)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// issue sets a fresh token pair. The caller holds mu.
func (s *Server) issue(w http.ResponseWriter) {
	access, refresh := uuid.NewString(), uuid.NewString()
	s.access[access] = true
	s.refresh[refresh] = true

	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: access, Path: "/", MaxAge: 900, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: refresh, Path: "/", MaxAge: 86400, HttpOnly: true})
}

// authorized reports whether the request carries a valid access token.
// The caller holds mu.
func (s *Server) authorized(r *http.Request) bool {
	c, err := r.Cookie("accessToken")
	return err == nil && s.access[c.Value]
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginCalls++

	if body.Username != Username || body.Password != Password {
		message(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	s.issue(w)
	writeJSON(w, http.StatusOK, DefaultUser)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meCalls++

	if !s.authorized(r) {
		message(w, http.StatusUnauthorized, "Invalid/expired Token!")
		return
	}

	writeJSON(w, http.StatusOK, DefaultUser)
}

func (s *Server) doRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	c, err := r.Cookie("refreshToken")
	if s.refreshFails || err != nil || !s.refresh[c.Value] {
		message(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	s.issue(w)
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutCalls++

	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productCalls++

	if !s.authorized(r) {
		message(w, http.StatusUnauthorized, "Access Token is required")
		return
	}

	q := strings.ToLower(r.URL.Query().Get("q"))
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if q == "" || strings.Contains(strings.ToLower(p.Title), q) {
			matched = append(matched, p)
		}
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 30
	}
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	skip = min(max(skip, 0), len(matched))
	end := min(skip+limit, len(matched))

	writeJSON(w, http.StatusOK, map[string]any{
		"products": matched[skip:end],
		"total":    len(matched),
		"skip":     skip,
		"limit":    limit,
	})
}
