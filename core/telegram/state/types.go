package state

// Session stores temporary data for a user.
type Session struct {
	TempData map[string]interface{}
}

// Manager keeps per-user sessions.
type Manager interface {
	SetTemp(userID int64, key string, value interface{})
	GetTemp(userID int64, key string) (interface{}, bool)
	GetTempInt64(userID int64, key string) (int64, bool)
	ClearTemp(userID int64, key string)
	Clear(userID int64)
}
