package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/internal/repository"
	"github.com/jafarshop/exactsync/internal/service"
	"github.com/jafarshop/exactsync/pkg/errors"
)

// ReservationResponse is the admin view of a reservation
type ReservationResponse struct {
	OrderID          int64   `json:"order_id"`
	OrderNumber      int64   `json:"order_number"`
	ProcessedAt      string  `json:"processed_at"`
	ExactOrderID     *string `json:"exact_order_id,omitempty"`
	ExactOrderNumber *string `json:"exact_order_number,omitempty"`
}

func toReservationResponse(res *domain.OrderReservation) ReservationResponse {
	resp := ReservationResponse{
		OrderID:          res.OrderID,
		OrderNumber:      res.OrderNumber,
		ProcessedAt:      res.ProcessedAt.Format("2006-01-02T15:04:05Z07:00"),
		ExactOrderNumber: res.ExactOrderNumber,
	}
	if res.ExactOrderID != nil {
		id := res.ExactOrderID.String()
		resp.ExactOrderID = &id
	}
	return resp
}

// HandleGetReservation handles GET /v1/admin/reservations/:orderID
func HandleGetReservation(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		res, err := repos.Reservation.GetByOrderID(c.Request.Context(), orderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			logger.Error("Failed to get reservation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toReservationResponse(res))
	}
}

// HandleListReservations handles GET /v1/admin/reservations
func HandleListReservations(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		reservations, err := repos.Reservation.ListRecent(c.Request.Context(), limit)
		if err != nil {
			logger.Error("Failed to list reservations", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]ReservationResponse, len(reservations))
		for i, res := range reservations {
			responses[i] = toReservationResponse(res)
		}

		c.JSON(http.StatusOK, gin.H{"reservations": responses})
	}
}

// HandleDeleteReservation handles DELETE /v1/admin/reservations/:orderID.
// This is the manual recovery path: it compensates the reservation so the
// next webhook redelivery of the order is treated as new.
func HandleDeleteReservation(reservations service.ReservationGate, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		if err := reservations.Compensate(c.Request.Context(), orderID); err != nil {
			logger.Error("Failed to delete reservation",
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		logger.Info("Reservation deleted by admin", zap.Int64("order_id", orderID))
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
