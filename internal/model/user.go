package model

// User is the subset of the `users` table the booking service reads.
// Accounts, credentials and roles are owned by the auth service; this
// service only needs the contact details used for the booking
// confirmation.
//
// Fields:
//  ID    – primary key identifier of the user.
//  Name  – display name used in notifications.
//  Email – address the confirmation is sent to.
type User struct {
    ID    uint64 `json:"id"`    // users.id
    Name  string `json:"name"`  // users.name
    Email string `json:"email"` // users.email
}

// Roles accepted on booking routes.  Tokens are issued by the auth
// service; the role claim carries one of these values.
const (
    RoleCustomer = "CUSTOMER"
    RoleStaff    = "STAFF"
    RoleAdmin    = "ADMIN"
)
