package router

import (
	"time"

	tg "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Resolver picks the handler for an incoming message.
// A nil handler means the message is ignored; name is still used for the summary line.
type Resolver func(c tele.Context) (name string, h tele.HandlerFunc)

// MessageOptions configures MessageRoutes.
type MessageOptions struct {
	Resolve Resolver
	// Endpoints defaults to text, document and audio updates.
	Endpoints []string
}

// MessageRoutes binds every message endpoint to a single resolver.
func MessageRoutes(opts MessageOptions) []tg.Route {
	if opts.Resolve == nil {
		return nil
	}
	endpoints := opts.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{tele.OnText, tele.OnDocument, tele.OnAudio}
	}

	handler := func(c tele.Context) error {
		start := time.Now()
		name, h := opts.Resolve(c)
		name = "message." + normalizeHandlerName(name)
		if h == nil {
			logHandlerSummary(c, name, start, "skip", "ignored", nil)
			return nil
		}
		return handleWithSummary(c, name, start, func() error {
			return h(c)
		})
	}
	wrapped := middleware.LoggerMiddleware(middleware.RecoverMiddleware(handler))

	routes := make([]tg.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}
