package handler

import (
	"net/http"

	"optik-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type PublicHandler struct {
	store models.StoreInfo
}

func NewPublicHandler(store models.StoreInfo) *PublicHandler {
	return &PublicHandler{store: store}
}

func (h *PublicHandler) GetStoreInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.store)
}

func (h *PublicHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
