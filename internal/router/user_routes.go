package router

import "github.com/iliyamo/repairhub/internal/handler"

// registerUser registers customer endpoints. Every route requires the user
// role; ownership of a task is checked by the services.
func registerUser(g section, d Deps) {
	t := handler.NewTaskHandler(d.Services)
	p := handler.NewPaymentHandler(d.Services)
	a := handler.NewAccountHandler(d.Services)

	g.POST("/user/tasks", t.Create)
	g.GET("/user/tasks", t.Mine)
	g.GET("/user/tasks/:id", t.Detail)
	g.POST("/user/tasks/:id/cancel", t.Cancel)
	g.POST("/user/tasks/:id/images", t.AttachImage)
	g.GET("/user/tasks/:id/images", t.ListImages)

	g.GET("/user/tasks/:id/payment", p.Info)
	g.POST("/user/tasks/:id/payment/slip", p.AttachSlip)
	g.DELETE("/user/tasks/:id/payment/slip", p.RemoveSlip)

	g.GET("/user/dashboard", t.Dashboard)
	g.GET("/users/me", a.UserProfile)
	g.PUT("/users/me", a.UpdateUserProfile)
	g.PUT("/users/me/password", a.ChangePassword)
}
