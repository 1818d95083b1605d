package users

// User is a registered shopper. Password holds an argon2id hash, or the raw
// password for records written before hashing was introduced.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Public is the part of a user safe to return to clients.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Username: u.Username}
}
