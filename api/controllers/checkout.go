package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/creamcommerce/commerce-backend/api/responses"
	"github.com/creamcommerce/commerce-backend/api/validators"
	"github.com/creamcommerce/commerce-backend/internal/checkout"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
)

type processPaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// ProcessPayment runs the payment saga. Declined and aborted payments
// respond 200 with success=false; only bad requests and state
// conflicts map to error statuses.
func ProcessPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processPaymentRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ProcessPayment(r.Context(), req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CancelOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CancelOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
