package event

import "github.com/sanosuguru/sportup/internal/domain/identity"

// CanMutate は操作主体がイベントを更新・削除できるかを返す
// 作成者本人または管理者のみ許可する
func CanMutate(actor identity.Identity, e *Event) bool {
	if e == nil || !actor.IsAuthenticated() {
		return false
	}
	return actor.UID == e.CreatedByUID || actor.IsAdmin()
}
