package models

// User — профиль пользователя в том виде, в котором его отдаёт бэкенд.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
	Email    string `json:"email,omitempty"`
	About    string `json:"about,omitempty"`
}

// DisplayName возвращает имя для отображения
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
