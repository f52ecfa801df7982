package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/creamcommerce/commerce-backend/api/responses"
	"github.com/creamcommerce/commerce-backend/api/validators"
	"github.com/creamcommerce/commerce-backend/internal/orders"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
)

type createOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	OptionID  uuid.UUID `json:"option_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	UserID          uuid.UUID                `json:"user_id" validate:"required"`
	ShippingAddress string                   `json:"shipping_address" validate:"required"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderLifecycleRequest struct {
	Action string `json:"action" validate:"required"`
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			UserID:          req.UserID,
			ShippingAddress: req.ShippingAddress,
			Items:           make([]orders.CreateOrderItemInput, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.CreateOrderItemInput{
				ProductID: item.ProductID,
				OptionID:  item.OptionID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListOrders(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderLifecycle applies one fulfillment transition named by the request
// body's action field.
func OrderLifecycle(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req orderLifecycleRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ApplyLifecycleAction(r.Context(), orderID, orders.LifecycleAction(req.Action))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
