package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
// IsAdmin is consulted on every update; a nil IsAdmin rejects everyone.
type AdminOptions struct {
	IsAdmin  func(c tele.Context) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only admins can invoke downstream handlers.
// Rejected updates are dropped silently unless OnReject is set.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin == nil || !opts.IsAdmin(c) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
