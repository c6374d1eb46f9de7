// Package catalog implements the product listing: remote pages, sorting,
// pagination, debounced search and products added locally by the user.
package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openkcm/catalog-client/internal/serviceerr"
)

// CustomCategory is the category of products added locally.
const CustomCategory = "custom"

type Product struct {
	ID        int64   `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Price     float64 `json:"price" yaml:"price"`
	Brand     string  `json:"brand" yaml:"brand"`
	SKU       string  `json:"sku" yaml:"sku"`
	Rating    float64 `json:"rating" yaml:"rating"`
	Stock     int     `json:"stock" yaml:"stock"`
	Category  string  `json:"category" yaml:"category"`
	Thumbnail string  `json:"thumbnail" yaml:"thumbnail"`
}

// Local reports whether the product was added on this client.
func (p Product) Local() bool {
	return p.ID < 0
}

type ProductsPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// NewProduct is the raw input of the add product form.
type NewProduct struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Brand string `json:"brand"`
	SKU   string `json:"sku"`
}

// ProductErrors maps form fields to their validation messages.
type ProductErrors map[string]string

func (pe ProductErrors) Error() string {
	fields := make([]string, 0, len(pe))
	for f := range pe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+pe[f])
	}

	return serviceerr.ErrInvalidProduct.Error() + ": " + strings.Join(msgs, ", ")
}

func (pe ProductErrors) Unwrap() error {
	return serviceerr.ErrInvalidProduct
}

// ParsePrice accepts both "." and "," as the decimal separator.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}

// ParseNewProduct validates the form and builds a local product from it.
func ParseNewProduct(form NewProduct, now time.Time) (Product, error) {
	errs := ProductErrors{}

	title := strings.TrimSpace(form.Title)
	if title == "" {
		errs["title"] = "title is required"
	}
	brand := strings.TrimSpace(form.Brand)
	if brand == "" {
		errs["brand"] = "brand is required"
	}
	sku := strings.TrimSpace(form.SKU)
	if sku == "" {
		errs["sku"] = "sku is required"
	}
	price, ok := ParsePrice(form.Price)
	if !ok {
		errs["price"] = "price must be a positive number"
	}

	if len(errs) > 0 {
		return Product{}, errs
	}

	return Product{
		ID:       -now.UnixMilli(),
		Title:    title,
		Price:    price,
		Brand:    brand,
		SKU:      sku,
		Category: CustomCategory,
	}, nil
}
