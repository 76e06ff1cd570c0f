package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/session"
	"github.com/andresuchdata/storeadmin/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WeatherSource feeds the dashboard widget.
type WeatherSource interface {
	Enabled() bool
	Current(ctx context.Context) (*domain.Weather, error)
}

// PageHandler serves the HTML pages. Every page works on the controllers of
// the caller's session.
type PageHandler struct {
	weather     WeatherSource
	defaultDays int
}

func NewPageHandler(weather WeatherSource, defaultDays int) *PageHandler {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &PageHandler{weather: weather, defaultDays: defaultDays}
}

func (h *PageHandler) render(c *gin.Context, status int, name string, data gin.H) {
	if sess := session.FromContext(c); sess != nil {
		data["Flashes"] = sess.Flashes()
	}
	c.HTML(status, name, data)
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	h.render(c, status, "error", gin.H{
		"Title":   http.StatusText(status),
		"Message": errorMessage(err),
	})
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "invalid id")
	}
	return id, nil
}

func ignoreStale(err error) error {
	if errors.Is(err, controller.ErrStaleResponse) {
		return nil
	}
	return err
}

// Dashboard renders the order list. A view parameter equal to the current,
// already loaded view only re-filters; a bare visit reloads. Orders, the
// product count and the weather are fetched concurrently.
func (h *PageHandler) Dashboard(c *gin.Context) {
	sess := session.FromContext(c)
	ctx := c.Request.Context()
	dash := sess.Dashboard

	var (
		g        errgroup.Group
		count    int
		countErr error
		reading  *domain.Weather
	)
	g.Go(func() error {
		if view, ok := c.GetQuery("view"); ok {
			_ = dash.SetView(ctx, controller.ParseViewMode(view))
		} else {
			_ = dash.Load(ctx)
		}
		return nil
	})
	g.Go(func() error {
		count, countErr = dash.ProductCount(ctx)
		return nil
	})
	if h.weather != nil && h.weather.Enabled() {
		g.Go(func() error {
			if w, err := h.weather.Current(ctx); err == nil {
				reading = w
			}
			return nil
		})
	}
	_ = g.Wait()

	dash.Search(c.Query("q"))

	data := gin.H{
		"Title":           "Dashboard",
		"Snapshot":        dash.Snapshot(),
		"ProductCount":    count,
		"ProductCountErr": countErr != nil,
		"WeatherText":     weather.Unavailable,
	}
	if reading != nil {
		data["Weather"] = reading
	}

	h.render(c, http.StatusOK, "dashboard", data)
}

// ToggleView flips between recent and all orders.
func (h *PageHandler) ToggleView(c *gin.Context) {
	sess := session.FromContext(c)
	if err := ignoreStale(sess.Dashboard.ToggleView(c.Request.Context())); err != nil {
		sess.AddFlash(session.FlashError, errorMessage(err))
	}
	redirect(c, "/?view="+sess.Dashboard.Snapshot().View.String())
}

func (h *PageHandler) OrderDetail(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	detail, err := session.FromContext(c).Dashboard.OpenOrder(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "order_detail", gin.H{
		"Title":  fmt.Sprintf("Order #%d", id),
		"Detail": detail,
	})
}

// EditOrder sends the browser to the order editor for an existing order.
func (h *PageHandler) EditOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	redirect(c, controller.EditOrderURL(id))
}

func (h *PageHandler) ConfirmDeleteOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.renderConfirm(c, http.StatusOK,
		"Delete order",
		fmt.Sprintf("Delete order #%d? This cannot be undone.", id),
		fmt.Sprintf("/orders/%d/delete", id),
		fmt.Sprintf("/orders/%d", id))
}

// DeleteOrder deletes once the confirmation field is present; otherwise the
// confirmation page is shown again and nothing is sent upstream.
func (h *PageHandler) DeleteOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	sess := session.FromContext(c)
	err = ignoreStale(sess.Dashboard.DeleteOrder(c.Request.Context(), id, c.PostForm("confirm") == "yes"))
	switch {
	case errors.Is(err, controller.ErrNotConfirmed):
		h.renderConfirm(c, http.StatusConflict,
			"Delete order",
			fmt.Sprintf("Delete order #%d? This cannot be undone.", id),
			fmt.Sprintf("/orders/%d/delete", id),
			fmt.Sprintf("/orders/%d", id))
		return
	case err != nil:
		sess.AddFlash(session.FlashError, errorMessage(err))
	default:
		sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Order #%d deleted", id))
	}
	redirect(c, "/?view="+sess.Dashboard.Snapshot().View.String())
}

func (h *PageHandler) renderConfirm(c *gin.Context, status int, title, message, action, cancel string) {
	h.render(c, status, "confirm_delete", gin.H{
		"Title":   title,
		"Message": message,
		"Action":  action,
		"Cancel":  cancel,
	})
}

// Simulation shows the product selector.
func (h *PageHandler) Simulation(c *gin.Context) {
	products, err := session.FromContext(c).Dashboard.OpenSimulation(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "simulation", gin.H{
		"Title":    "Revenue Simulation",
		"Products": products,
		"Selected": map[int64]bool{},
		"Days":     h.defaultDays,
	})
}

// RunSimulation posts the selection and renders the result below the form.
func (h *PageHandler) RunSimulation(c *gin.Context) {
	ctx := c.Request.Context()
	dash := session.FromContext(c).Dashboard

	selected := map[int64]bool{}
	var ids []int64
	for _, raw := range c.PostFormArray("product_ids") {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		selected[id] = true
	}
	days, err := strconv.Atoi(strings.TrimSpace(c.PostForm("days")))
	if err != nil {
		days = 0
	}

	products, err := dash.OpenSimulation(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	data := gin.H{
		"Title":    "Revenue Simulation",
		"Products": products,
		"Selected": selected,
		"Days":     days,
	}

	result, err := dash.RunSimulation(ctx, ids, days)
	if err != nil {
		data["Error"] = errorMessage(err)
		h.render(c, statusFor(err), "simulation", data)
		return
	}
	data["Result"] = result
	h.render(c, http.StatusOK, "simulation", data)
}

// Products lists products. A q parameter on an already loaded list only
// filters.
func (h *PageHandler) Products(c *gin.Context) {
	products := session.FromContext(c).Products
	if _, ok := c.GetQuery("cancel"); ok {
		products.CancelEdit()
	}

	_, searching := c.GetQuery("q")
	if !searching || products.Snapshot().State != controller.StateLoaded {
		_ = ignoreStale(products.Load(c.Request.Context()))
	}
	products.Search(c.Query("q"))

	h.render(c, http.StatusOK, "products", gin.H{
		"Title":    "Manage Products",
		"Snapshot": products.Snapshot(),
	})
}

func (h *PageHandler) ensureProductsLoaded(ctx context.Context, products *controller.ProductController) error {
	snap := products.Snapshot()
	if snap.State == controller.StateLoaded && len(snap.UOMs) > 0 {
		return nil
	}
	return ignoreStale(products.Load(ctx))
}

func (h *PageHandler) NewProduct(c *gin.Context) {
	products := session.FromContext(c).Products
	if err := h.ensureProductsLoaded(c.Request.Context(), products); err != nil {
		h.renderError(c, err)
		return
	}
	h.renderProductForm(c, http.StatusOK, products, products.BeginAdd(), "")
}

func (h *PageHandler) EditProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	products := session.FromContext(c).Products
	if err := h.ensureProductsLoaded(c.Request.Context(), products); err != nil {
		h.renderError(c, err)
		return
	}
	form, err := products.BeginEdit(id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.renderProductForm(c, http.StatusOK, products, form, "")
}

// SaveProduct creates or updates depending on the product id the form posts.
func (h *PageHandler) SaveProduct(c *gin.Context) {
	sess := session.FromContext(c)
	products := sess.Products

	form := controller.ProductForm{
		ID:       c.PostForm("product_id"),
		Name:     c.PostForm("name"),
		UOMID:    c.PostForm("uom_id"),
		Price:    c.PostForm("price_per_unit"),
		Quantity: c.PostForm("quantity"),
	}

	err := ignoreStale(products.Save(c.Request.Context(), form))
	if domain.IsValidation(err) {
		h.renderProductForm(c, http.StatusBadRequest, products, form, errorMessage(err))
		return
	}
	if err != nil {
		sess.AddFlash(session.FlashError, errorMessage(err))
	} else {
		sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Product %q saved", strings.TrimSpace(form.Name)))
	}
	redirect(c, "/products?q="+url.QueryEscape(products.Snapshot().Query))
}

func (h *PageHandler) renderProductForm(c *gin.Context, status int, products *controller.ProductController, form controller.ProductForm, errText string) {
	snap := products.Snapshot()
	editing := strings.TrimSpace(form.ID) != ""
	data := gin.H{
		"Title":   "Add Product",
		"Form":    form,
		"UOMs":    snap.UOMs,
		"Editing": editing,
	}
	if editing {
		data["Title"] = "Edit Product"
	}
	if errText != "" {
		data["Error"] = errText
	}
	h.render(c, status, "product_form", data)
}

func (h *PageHandler) ConfirmDeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.renderConfirm(c, http.StatusOK, "Delete product", h.productDeleteMessage(c, id),
		fmt.Sprintf("/products/%d/delete", id), "/products")
}

func (h *PageHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	sess := session.FromContext(c)
	err = ignoreStale(sess.Products.Delete(c.Request.Context(), id, c.PostForm("confirm") == "yes"))
	switch {
	case errors.Is(err, controller.ErrNotConfirmed):
		h.renderConfirm(c, http.StatusConflict, "Delete product", h.productDeleteMessage(c, id),
			fmt.Sprintf("/products/%d/delete", id), "/products")
		return
	case err != nil:
		sess.AddFlash(session.FlashError, errorMessage(err))
	default:
		sess.AddFlash(session.FlashSuccess, "Product deleted")
	}
	redirect(c, "/products?q="+url.QueryEscape(sess.Products.Snapshot().Query))
}

func (h *PageHandler) productDeleteMessage(c *gin.Context, id int64) string {
	if p, ok := session.FromContext(c).Products.Product(id); ok {
		return fmt.Sprintf("Delete product %q? This cannot be undone.", p.Name)
	}
	return fmt.Sprintf("Delete product #%d? This cannot be undone.", id)
}

// OrderEditor opens a fresh editor for this form; an id query parameter
// selects edit mode.
func (h *PageHandler) OrderEditor(c *gin.Context) {
	sess := session.FromContext(c)
	token, editor, err := sess.NewEditor()
	if err != nil {
		h.renderError(c, err)
		return
	}
	if err := editor.Load(c.Request.Context(), c.Query("id")); err != nil {
		sess.DropEditor(token)
		h.renderError(c, err)
		return
	}
	h.renderEditor(c, http.StatusOK, token, editor, "")
}

// SubmitOrder applies the posted rows to the editor the form was opened
// with, then runs the requested action: add, remove:<row>, recalc or save.
// The posted id decides create or edit mode; an unknown form or one whose id
// disagrees with its editor is rebuilt from the posted id.
func (h *PageHandler) SubmitOrder(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session.FromContext(c)

	postedID, err := controller.ParseOrderID(c.PostForm("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	token := c.PostForm("form_id")
	editor, ok := sess.Editor(token)
	if !ok || !sameOrder(editor.Snapshot(), postedID) {
		if ok {
			log.Warn().Str("form", token).Msg("order form does not match its editor, reloading")
			sess.DropEditor(token)
		}
		token, editor, err = sess.NewEditor()
		if err != nil {
			h.renderError(c, err)
			return
		}
		if err := editor.Load(ctx, c.PostForm("id")); err != nil {
			sess.DropEditor(token)
			h.renderError(c, err)
			return
		}
	}
	editor.ApplyRows(parseRows(c))
	editor.SetCustomerName(c.PostForm("customer_name"))

	action := c.PostForm("action")
	switch {
	case action == "add":
		editor.AddRow()
	case strings.HasPrefix(action, "remove:"):
		if rowID, err := strconv.Atoi(strings.TrimPrefix(action, "remove:")); err == nil {
			_ = editor.RemoveRow(rowID)
		}
	case action == "save":
		if _, err := editor.Save(ctx, c.PostForm("customer_name")); err != nil {
			h.renderEditor(c, statusFor(err), token, editor, errorMessage(err))
			return
		}
		sess.DropEditor(token)
		sess.AddFlash(session.FlashSuccess, "Order saved")
		redirect(c, "/")
		return
	}
	h.renderEditor(c, http.StatusOK, token, editor, "")
}

func sameOrder(snap controller.EditorSnapshot, id *int64) bool {
	if !snap.Loaded {
		return false
	}
	if snap.EditingID == nil || id == nil {
		return snap.EditingID == nil && id == nil
	}
	return *snap.EditingID == *id
}

func (h *PageHandler) renderEditor(c *gin.Context, status int, token string, editor *controller.OrderEditor, errText string) {
	snap := editor.Snapshot()
	data := gin.H{
		"Title":  "New Order",
		"FormID": token,
		"Editor": snap,
	}
	if snap.EditingID != nil {
		data["Title"] = fmt.Sprintf("Edit Order #%d", *snap.EditingID)
	}
	if errText != "" {
		data["Error"] = errText
	}
	h.render(c, status, "order_editor", data)
}

func parseRows(c *gin.Context) []controller.RowInput {
	ids := c.PostFormArray("row_id")
	products := c.PostFormArray("product_id")
	quantities := c.PostFormArray("quantity")

	rows := make([]controller.RowInput, 0, len(ids))
	for i, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		in := controller.RowInput{ID: id}
		if i < len(products) {
			in.ProductID, _ = strconv.ParseInt(products[i], 10, 64)
		}
		if i < len(quantities) {
			in.Quantity = quantities[i]
		}
		rows = append(rows, in)
	}
	return rows
}
