// Package state keeps short-lived per-user session values for Telegram bots.
// Sessions live in memory and are lost on restart.
package state
