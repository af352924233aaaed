package models

// Role - роль пользователя
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session - данные вошедшего пользователя, не сохраняются
type Session struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin сообщает, имеет ли сессия права администратора
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
