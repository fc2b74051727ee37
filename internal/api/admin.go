package api

import (
	"context"
	"net/http"
	"strconv"

	"coursepay-api/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminStore is the slice of the store used by the admin routes.
type AdminStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	ListPurchasesByUser(ctx context.Context, userID uint) ([]models.Purchase, error)
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error)
	ListWebhookEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error)
}

// AdminHandler serves the operator routes.
type AdminHandler struct {
	store AdminStore
}

func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// CreateUserRequest represents create user request
type CreateUserRequest struct {
	StripeCustomerID string `json:"stripe_customer_id" binding:"required"`
	ClerkID          string `json:"clerk_id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
}

// CreateUser links a storefront account to a Stripe customer
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request format: " + err.Error(),
		})
		return
	}

	user := &models.User{
		StripeCustomerID: req.StripeCustomerID,
		ClerkID:          req.ClerkID,
		Email:            req.Email,
		Name:             req.Name,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Failed to create user: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"data":    user,
	})
}

// ListUserPurchases lists the purchases of a user
func (h *AdminHandler) ListUserPurchases(c *gin.Context) {
	userID, ok := h.userFromParam(c)
	if !ok {
		return
	}

	purchases, err := h.store.ListPurchasesByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get purchases",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    purchases,
	})
}

// ListUserSubscriptions lists the subscriptions of a user
func (h *AdminHandler) ListUserSubscriptions(c *gin.Context) {
	userID, ok := h.userFromParam(c)
	if !ok {
		return
	}

	subscriptions, err := h.store.ListSubscriptionsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get subscriptions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    subscriptions,
	})
}

// ListWebhookEvents shows recent Stripe deliveries
func (h *AdminHandler) ListWebhookEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.store.ListWebhookEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get webhook events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
	})
}

func (h *AdminHandler) userFromParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "User ID is required",
		})
		return 0, false
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "User not found",
		})
		return 0, false
	}
	return uint(id), true
}
