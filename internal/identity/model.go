package identity

import "time"

// Verification states for a wallet owner. Accounts start unverified with a
// low transaction limit; BVN verification lifts the limit.
const (
	StatusUnverified = "UNVERIFIED"
	StatusVerified   = "VERIFIED"
)

// Transaction limits in NGN major units.
const (
	UnverifiedLimit float64 = 50_000
	VerifiedLimit   float64 = 5_000_000
)

// Profile is the public view of a wallet owner. It crosses the wire on
// login/OTP responses and is cached verbatim by clients, so its JSON shape
// is part of the API contract.
type Profile struct {
	ID                   string  `json:"id"`
	FirstName            string  `json:"firstName"`
	LastName             string  `json:"lastName"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone,omitempty"`
	VerificationStatus   string  `json:"verificationStatus"`
	TransactionLimit     float64 `json:"transactionLimit"`
	VirtualAccountNumber string  `json:"virtualAccountNumber,omitempty"`
	BankName             string  `json:"bankName,omitempty"`
}

// User is the stored account record: the public profile plus credentials.
type User struct {
	Profile
	PasswordHash []byte
	PINHash      []byte
	CreatedAt    time.Time
}

// Credentials carries a login attempt. Identifier is an email address or a
// Nigerian phone number.
type Credentials struct {
	Identifier string
	Password   string
}
