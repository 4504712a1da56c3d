package auth

// Account is the credentials side of a directory profile.
type Account struct {
	ActorID      string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
}
