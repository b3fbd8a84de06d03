package user

// User là domain entity - ánh xạ 1:1 với bảng users
// username là login identity (unique, immutable); nickname là tên public
// được gắn lên records (record_owner).
type User struct {
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"` // Never expose in JSON
	Email        string `db:"email" json:"email"`
	Nickname     string `db:"nickname" json:"nickname"`
}

// ToDTO converts User to the public representation
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		Username: u.Username,
		Email:    u.Email,
		Nickname: u.Nickname,
	}
}
