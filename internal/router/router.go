package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/agentbook/backend/api/handler"
)

type Handlers struct {
	Contact     *apiHandler.ContactHandler
	Appointment *apiHandler.AppointmentHandler
	Timeline    *apiHandler.TimelineHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Contact book
	r.GET("/api/v1/contacts", authMiddleware(handlers.Contact.ListContacts))
	r.POST("/api/v1/contacts", authMiddleware(handlers.Contact.CreateContact))
	r.GET("/api/v1/contacts/{id}", authMiddleware(handlers.Contact.GetContact))
	r.PUT("/api/v1/contacts/{id}", authMiddleware(handlers.Contact.UpdateContact))

	// Activity log
	r.POST("/api/v1/interactions", authMiddleware(handlers.Contact.LogInteraction))
	r.POST("/api/v1/notes", authMiddleware(handlers.Contact.AddNote))

	// Appointments
	r.GET("/api/v1/appointments", authMiddleware(handlers.Appointment.ListAppointments))
	r.POST("/api/v1/appointments", authMiddleware(handlers.Appointment.CreateAppointment))
	r.POST("/api/v1/appointments/{id}/transition", authMiddleware(handlers.Appointment.TransitionAppointment))

	// Aggregated timeline
	r.GET("/api/v1/contacts/{id}/timeline", authMiddleware(handlers.Timeline.GetTimeline))
	r.GET("/api/v1/contacts/{id}/timeline/stream", authMiddleware(handlers.Timeline.StreamTimeline))

	return r
}
