package router

import "github.com/iliyamo/repairhub/internal/handler"

// registerTechnician registers the technician job board, the work on
// claimed tasks with their payments, and the technician profile.
func registerTechnician(g section, d Deps) {
	t := handler.NewTaskHandler(d.Services)
	p := handler.NewPaymentHandler(d.Services)
	a := handler.NewAccountHandler(d.Services)

	g.GET("/technician/tasks/available", t.Available)
	g.GET("/technician/tasks/mine", t.Mine)
	g.GET("/technician/tasks/:id", t.Detail)
	g.PATCH("/technician/tasks/:id/accept", t.Accept)
	g.PUT("/technician/tasks/:id/status", t.UpdateStatus)
	g.POST("/technician/tasks/:id/images", t.AttachImage)
	g.GET("/technician/tasks/:id/images", t.ListImages)

	g.PUT("/technician/tasks/:id/payment", p.Upsert)
	g.GET("/technician/tasks/:id/payment", p.Info)
	g.POST("/technician/tasks/:id/payment/confirm", p.Confirm)
	g.POST("/technician/tasks/:id/payment/refuse", p.Refuse)
	g.POST("/technician/payments/:id/details", p.AddDetail)
	g.DELETE("/technician/payment-details/:id", p.RemoveDetail)

	g.GET("/technicians/me", a.TechnicianProfile)
	g.PUT("/technicians/me", a.UpdateTechnicianProfile)
	g.PUT("/technicians/me/password", a.ChangePassword)
}
