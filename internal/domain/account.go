package domain

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleSeller    Role = "seller"
	RoleInstaller Role = "installer"
)

type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	SavedCar Car    `json:"saved_car"`
}

// Car is a customer's saved vehicle, used as a filter shortcut in the catalog.
type Car struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  string `json:"year"`
}
