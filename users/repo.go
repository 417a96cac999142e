package users

type UserRepo interface {
	Upsert(user *User) error
	GetByID(ID string) (*User, error)
	GetByNicknameOrEmail(nicknameOrEmail string) (*User, error)
	SetBlocked(ID string, blocked bool) error
	SetLocation(ID string, location *Location) error
	Count() (int, error)
}
