package middleware

import usermodel "supplyhub/apps/user/model"

type Permission string

const (
	CatalogWrite    Permission = "catalog:write"
	OrdersRead      Permission = "orders:read"
	OrdersReadAny   Permission = "orders:read:any"
	OrdersWrite     Permission = "orders:write"
	OrdersForce     Permission = "orders:force"
	QuotesCreate    Permission = "quotes:create"
	QuotesRead      Permission = "quotes:read"
	QuotesReadAny   Permission = "quotes:read:any"
	QuotesWrite     Permission = "quotes:write"
	CustomersManage Permission = "customers:manage"
	MessagesManage  Permission = "messages:manage"
	UsersManage     Permission = "users:manage"
	StatsRead       Permission = "stats:read"
)

var staffPermissions = []Permission{
	CatalogWrite, OrdersRead, OrdersReadAny, OrdersWrite,
	QuotesCreate, QuotesRead, QuotesReadAny, QuotesWrite,
	CustomersManage, MessagesManage, UsersManage, StatsRead,
}

// rolePermissions 角色权限表. Customers read only their own orders and quotes.
var rolePermissions = map[usermodel.Role]map[Permission]bool{
	usermodel.RoleCustomer:   set(QuotesCreate, QuotesRead, OrdersRead),
	usermodel.RoleAdmin:      set(staffPermissions...),
	usermodel.RoleSuperadmin: set(append([]Permission{OrdersForce}, staffPermissions...)...),
}

func set(perms ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

// Allowed reports whether role holds p. Unknown roles hold nothing.
func Allowed(role usermodel.Role, p Permission) bool {
	return rolePermissions[role][p]
}
