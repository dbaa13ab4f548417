package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type LogoutResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

type UserResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type UsersResponse struct {
	Success bool           `json:"success"`
	Users   []UserResponse `json:"users"`
}
