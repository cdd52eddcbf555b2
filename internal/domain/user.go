package domain

// User is a registered shopper identity.
//
// There is deliberately no credential material here. The server trusts the
// client-asserted email after checking it against this registry; anything
// stronger is a separate credential service outside this repo.
type User struct {
	Meta
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
