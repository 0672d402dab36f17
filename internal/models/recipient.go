package models

// Recipient is an entry in the notification roster. The dispatcher only
// considers active recipients and filters per channel on presence of the
// matching contact field.
type Recipient struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Category string `json:"category"`
	IsActive bool   `json:"isActive"`
}
