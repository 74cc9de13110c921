package user

// User is an account holder. Email is the login identifier and token subject.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

type RegisterParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
