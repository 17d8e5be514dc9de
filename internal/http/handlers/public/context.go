package public

import (
	handlershared "github.com/vendora-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
