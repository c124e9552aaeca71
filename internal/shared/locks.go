package shared

import "fmt"

// DraftSubmitKey builds the redis key guarding a draft against double submission.
func DraftSubmitKey(draftID string) string {
	return fmt.Sprintf("invoicing:draft:%s:submit", draftID)
}
