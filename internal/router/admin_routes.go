package router

import "github.com/iliyamo/repairhub/internal/handler"

// registerAdmin registers statistics, technician onboarding and the
// back-office payment confirmation.
func registerAdmin(g section, d Deps) {
	h := handler.NewAdminHandler(d.Services)
	p := handler.NewPaymentHandler(d.Services)

	g.GET("/admin/stats/dashboard", h.Dashboard)
	g.GET("/admin/stats/revenue", h.Revenue)
	g.GET("/admin/technicians-all", h.ListRoster)
	g.GET("/admin/technicians/:id", h.GetTechnician)
	g.PUT("/admin/technicians/:id", h.UpdateTechnician)
	g.DELETE("/admin/technicians/:id", h.DeleteTechnician)
	g.POST("/admin/registrations/:id/approve", h.Approve)
	g.POST("/admin/registrations/:id/reject", h.Reject)
	g.DELETE("/admin/registrations/:id", h.DeleteRegistration)
	g.POST("/admin/tasks/:id/payment/confirm", p.Confirm)
}
