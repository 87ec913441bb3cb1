package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/internal/common"
	"lumicart-io/api/pkg/models"
	"lumicart-io/api/pkg/services"
	"lumicart-io/api/pkg/util"
)

// CartController exposes the cart session to the storefront frontend. Every
// mutation answers with the fresh local snapshot; upstream persistence runs
// behind it and reports through the event channel.
type CartController struct {
	sessions  *services.SessionManager
	catalog   *services.CatalogService
	media     services.MediaUpload
	jwtSecret string
}

func InitCartController(sessions *services.SessionManager, catalog *services.CatalogService, media services.MediaUpload, jwtSecret string) *CartController {
	return &CartController{
		sessions:  sessions,
		catalog:   catalog,
		media:     media,
		jwtSecret: jwtSecret,
	}
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), common.REQUEST_TIMEOUT_SECS)
}

// statusForError maps the service failure taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrItemNotFound), errors.Is(err, services.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrNoIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrUpstreamRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// requireSession resolves the caller's cart session or short-circuits with
// 401 before any network call.
func (cc *CartController) requireSession(c *gin.Context) (*services.CartSession, bool) {
	identity, err := auth.RequireIdentity(c, cc.jwtSecret)
	if err != nil {
		util.HandleError(c, http.StatusUnauthorized, err)
		return nil, false
	}
	return cc.sessions.Session(identity), true
}

// GetCart loads the authoritative cart. A failed load still answers with an
// empty cart plus a retryable flag; the reload path must always stay open.
func (cc *CartController) GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.EnsureIdentity(c, cc.jwtSecret)
		session := cc.sessions.Session(identity)

		ctx, cancel := withTimeout()
		defer cancel()

		snapshot, err := session.Load(ctx)
		if err != nil {
			util.HandleSuccessMeta(c, http.StatusOK, "cart temporarily unavailable", snapshot, gin.H{
				"retryable": true,
			})
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", snapshot)
	}
}

// AddItem adds a product to the cart. The product (and its option
// definitions) comes from the live catalog; a degraded snapshot is never
// allowed to feed a cart mutation.
func (cc *CartController) AddItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}
		if err := common.Validate.Struct(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}

		identity := auth.EnsureIdentity(c, cc.jwtSecret)
		session := cc.sessions.Session(identity)

		ctx, cancel := withTimeout()
		defer cancel()

		product, degraded, err := cc.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}
		if degraded {
			util.HandleError(c, http.StatusServiceUnavailable, errors.New("product data is temporarily unavailable, try again"))
			return
		}
		if product.Stock < 1 {
			util.HandleError(c, http.StatusConflict, errors.New("product is out of stock"))
			return
		}

		snapshot, err := session.AddItem(ctx, *product, req)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Item added to cart", snapshot)
	}
}

// SetQuantity clamps into [1, stock]; zero removes the item.
func (cc *CartController) SetQuantity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		var req models.SetQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}

		snapshot, err := session.SetQuantity(c.Param("itemId"), req.Quantity)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Quantity updated", snapshot)
	}
}

// SetOption merges one option selection into the item.
func (cc *CartController) SetOption() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		var req models.SetOptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}
		if err := common.Validate.Struct(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}

		snapshot, err := session.SetOption(c.Param("itemId"), req.Name, req.Value)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Option updated", snapshot)
	}
}

// SetNote applies a free-text note edit; upstream persistence is debounced.
func (cc *CartController) SetNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		var req models.SetNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}

		snapshot, err := session.SetAttachmentNote(c.Param("itemId"), req.Note)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Note updated", snapshot)
	}
}

// AddImages attaches images to an item: multipart uploads go through the
// media host first, a JSON body of already-hosted URLs is taken as is.
func (cc *CartController) AddImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		itemID := c.Param("itemId")

		form, err := c.MultipartForm()
		if err == nil && form != nil && len(form.File["images"]) > 0 {
			if cc.media == nil {
				util.HandleError(c, http.StatusServiceUnavailable, errors.New("image uploads are not configured"))
				return
			}

			urls := make([]string, 0, len(form.File["images"]))
			for _, header := range form.File["images"] {
				file, openErr := header.Open()
				if openErr != nil {
					util.HandleError(c, http.StatusBadRequest, openErr)
					return
				}
				url, upErr := cc.media.FileUpload(c.Request.Context(), file)
				file.Close()
				if upErr != nil {
					util.HandleError(c, http.StatusBadGateway, upErr)
					return
				}
				urls = append(urls, url)
			}

			snapshot, addErr := session.AddAttachmentImages(itemID, urls)
			if addErr != nil {
				util.HandleError(c, statusForError(addErr), addErr)
				return
			}
			util.HandleSuccess(c, http.StatusOK, "Images attached", snapshot)
			return
		}

		var req models.AddImagesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}
		if err := common.Validate.Struct(&req); err != nil {
			util.HandleError(c, http.StatusBadRequest, err)
			return
		}

		snapshot, err := session.AddAttachmentImages(itemID, req.Images)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}
		util.HandleSuccess(c, http.StatusOK, "Images attached", snapshot)
	}
}

// RemoveImage drops one attachment image by index.
func (cc *CartController) RemoveImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			util.HandleError(c, http.StatusBadRequest, errors.New("bad image index"))
			return
		}

		snapshot, err := session.RemoveAttachmentImage(c.Param("itemId"), index)
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Image removed", snapshot)
	}
}

// DeleteItem removes one line item.
func (cc *CartController) DeleteItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		snapshot, err := session.RemoveItem(c.Param("itemId"))
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "Cart item deleted successfully", snapshot)
	}
}

// ClearCart empties the cart.
func (cc *CartController) ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		snapshot := session.Clear()
		util.HandleSuccess(c, http.StatusOK, "Cart cleared successfully", snapshot)
	}
}

// CheckoutEligibility runs the checkout gate over the current snapshot and,
// when blocked, itemizes which products are missing which options.
func (cc *CartController) CheckoutEligibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := cc.requireSession(c)
		if !ok {
			return
		}

		report := session.Checkout()
		if report.Allowed {
			util.HandleSuccess(c, http.StatusOK, "checkout allowed", report)
			return
		}

		util.HandleSuccessMeta(c, http.StatusOK, services.DescribeCheckoutBlock(report), report, gin.H{
			"focusItemId": services.FirstIncompleteItemID(report),
		})
	}
}

// CloseSession flushes pending persists and discards the session (logout).
func (cc *CartController) CloseSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.RequireIdentity(c, cc.jwtSecret)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		cc.sessions.Close(identity)
		util.HandleSuccess(c, http.StatusOK, "session closed", nil)
	}
}
