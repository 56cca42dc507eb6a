package pipeline

// Config holds pipeline options
type Config interface {
	GetSigningKey() string
	// GetTokenExpiration is the resume token lifetime in hours.
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	// GetPasswordCost is the bcrypt cost for new password credentials.
	GetPasswordCost() int
}
