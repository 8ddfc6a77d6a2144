package identity

// Role はユーザーの権限ロール
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid はロールが定義済みかを返す
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity は認証済みの操作主体を表す
// サービス層へは常に明示的な引数として渡す
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	Roles       []Role
}

// IsAdmin は管理者権限を持つかを返す
func (i Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}

// HasRole は指定ロールを持つかを返す
func (i Identity) HasRole(role Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated はUIDを持つかを返す
func (i Identity) IsAuthenticated() bool {
	return i.UID != ""
}
