package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/products/search", handler.SearchProducts)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/scan", handler.ScanItem)
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/stats", handler.OrderStats)

		r.Route("/direct", func(r chi.Router) {
			r.Post("/", handler.CreateDirectOrder)
			r.Get("/", handler.ListDirectOrders)
			r.Get("/stats", handler.DirectOrderStats)
			r.Get("/{id}", handler.GetDirectOrderByID)
			r.Post("/{id}/update-status", handler.UpdateDirectOrderStatus)
			r.Delete("/{id}", handler.DeleteDirectOrder)
		})

		r.Get("/{id}", handler.GetOrderByID)
		r.Post("/{id}/update-status", handler.UpdateOrderStatus)
		r.Delete("/{id}", handler.DeleteOrder)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/stats", handler.InventoryStats)

		r.Route("/variant/{variantID}", func(r chi.Router) {
			r.Get("/", handler.GetVariantQuantity)
			r.Put("/", handler.SetVariantQuantity)
			r.Get("/logs", handler.GetVariantLogs)
		})

		r.Get("/{productID}", handler.GetProductQuantity)
		r.Put("/{productID}", handler.SetProductQuantity)
		r.Get("/{productID}/logs", handler.GetProductLogs)
	})

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", handler.CreateDraft)

		r.Route("/direct", func(r chi.Router) {
			r.Post("/", handler.CreateDirectDraft)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetDirectDraft)
				r.Post("/items", handler.AddDirectDraftItem)
				r.Patch("/items", handler.UpdateDirectDraftItem)
				r.Delete("/items", handler.RemoveDirectDraftItem)
				r.Put("/customer", handler.SetDirectDraftCustomer)
				r.Put("/details", handler.SetDirectDraftDetails)
				r.Post("/advance", handler.AdvanceDirectDraft)
				r.Post("/back", handler.BackDirectDraft)
				r.Post("/submit", handler.SubmitDirectDraft)
				r.Delete("/", handler.CancelDraft)
			})
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.GetDraft)
			r.Post("/items", handler.AddDraftItem)
			r.Patch("/items", handler.UpdateDraftItem)
			r.Delete("/items", handler.RemoveDraftItem)
			r.Put("/shipping", handler.SetDraftShipping)
			r.Put("/payment", handler.SetDraftPayment)
			r.Put("/adjustments", handler.SetDraftAdjustments)
			r.Post("/advance", handler.AdvanceDraft)
			r.Post("/back", handler.BackDraft)
			r.Post("/submit", handler.SubmitDraft)
			r.Delete("/", handler.CancelDraft)
		})
	})

	return r
}
