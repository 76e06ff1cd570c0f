package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/rs/zerolog/log"
)

type ProductOptions struct {
	// RequireQuantity rejects a blank or non-integer quantity on save.
	RequireQuantity bool
}

type ProductSnapshot struct {
	State     LoadState
	Err       error
	Query     string
	UOMs      []domain.UOM
	Rows      []domain.Product
	Total     int
	EditingID *int64
}

type ProductController struct {
	catalog         Catalog
	requireQuantity bool

	mu        sync.Mutex
	state     LoadState
	err       error
	uoms      []domain.UOM
	cached    []domain.Product
	query     string
	editingID *int64

	gen    Generation
	events subscribers
}

func NewProductController(catalog Catalog, opts ProductOptions) *ProductController {
	return &ProductController{
		catalog:         catalog,
		requireQuantity: opts.RequireQuantity,
	}
}

// Load fetches the unit list first, then the product list.
func (c *ProductController) Load(ctx context.Context) error {
	c.mu.Lock()
	tag := c.gen.Next()
	c.state = StateLoading
	c.mu.Unlock()
	c.events.emit(Event{Page: "products", Kind: EventLoading})

	uoms, err := c.catalog.ListUOMs(ctx)
	if err == nil {
		c.mu.Lock()
		if c.gen.Current(tag) {
			c.uoms = uoms
		}
		c.mu.Unlock()
		err = c.loadProducts(ctx, tag)
	} else {
		err = c.fail(tag, fmt.Errorf("load units: %w", err))
	}
	return err
}

// Reload refreshes the product list only.
func (c *ProductController) Reload(ctx context.Context) error {
	c.mu.Lock()
	tag := c.gen.Next()
	c.state = StateLoading
	c.mu.Unlock()
	return c.loadProducts(ctx, tag)
}

func (c *ProductController) loadProducts(ctx context.Context, tag uint64) error {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return c.fail(tag, fmt.Errorf("load products: %w", err))
	}

	c.mu.Lock()
	if !c.gen.Current(tag) {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	c.cached = products
	c.state = StateLoaded
	c.err = nil
	c.mu.Unlock()

	c.events.emit(Event{Page: "products", Kind: EventLoaded})
	return nil
}

func (c *ProductController) fail(tag uint64, err error) error {
	c.mu.Lock()
	if !c.gen.Current(tag) {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	c.state = StateError
	c.err = err
	c.mu.Unlock()

	log.Error().Err(err).Msg("products: load failed")
	c.events.emit(Event{Page: "products", Kind: EventFailed, Err: err})
	return err
}

// Search records the filter text and filters the cached list.
func (c *ProductController) Search(q string) []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	return FilterProducts(c.cached, q)
}

func (c *ProductController) Snapshot() ProductSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := ProductSnapshot{
		State: c.state,
		Err:   c.err,
		Query: c.query,
		UOMs:  append([]domain.UOM(nil), c.uoms...),
		Rows:  FilterProducts(c.cached, c.query),
		Total: len(c.cached),
	}
	if c.editingID != nil {
		id := *c.editingID
		snap.EditingID = &id
	}
	return snap
}

// BeginAdd opens the modal in add mode with an empty form.
func (c *ProductController) BeginAdd() ProductForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editingID = nil

	form := ProductForm{}
	if len(c.uoms) > 0 {
		form.UOMID = fmt.Sprint(c.uoms[0].ID)
	}
	return form
}

// BeginEdit opens the modal for id, pre-filled from the last fetched list.
func (c *ProductController) BeginEdit(id int64) (ProductForm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.cached {
		if p.ID == id {
			c.editingID = &id
			return FormFromProduct(p), nil
		}
	}
	return ProductForm{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
}

// CancelEdit closes the modal without saving.
func (c *ProductController) CancelEdit() {
	c.mu.Lock()
	c.editingID = nil
	c.mu.Unlock()
}

// Save validates the form, creates or updates the product depending on the
// id the form carries, then clears the edit state and reloads the list.
// Invalid input is rejected before any request is made.
func (c *ProductController) Save(ctx context.Context, form ProductForm) error {
	input, err := ValidateProductForm(form, c.requireQuantity)
	if err != nil {
		return err
	}

	if input.ID != nil {
		err = c.catalog.UpdateProduct(ctx, input)
	} else {
		_, err = c.catalog.AddProduct(ctx, input)
	}
	if err != nil {
		log.Error().Err(err).Str("name", input.Name).Msg("products: save failed")
		return err
	}

	c.mu.Lock()
	c.editingID = nil
	c.mu.Unlock()

	c.events.emit(Event{Page: "products", Kind: EventMutated})
	return c.Reload(ctx)
}

// Delete removes the product once confirmed and reloads the list.
func (c *ProductController) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.catalog.DeleteProduct(ctx, id); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("products: delete failed")
		return err
	}
	c.events.emit(Event{Page: "products", Kind: EventMutated})
	return c.Reload(ctx)
}

// Product looks a product up in the last fetched list.
func (c *ProductController) Product(id int64) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.cached {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *ProductController) Subscribe(fn func(Event)) func() {
	return c.events.Subscribe(fn)
}

func (c *ProductController) Close() {
	c.events.Close()
}
