package service

import "github.com/inkwell-blog/inkwell/database/model"

// Authorize allows a post mutation only for its owner.
func Authorize(identity string, hasIdentity bool, post *model.Post) error {
	if !hasIdentity || identity == "" || post == nil || post.UserId != identity {
		return ErrForbidden
	}
	return nil
}

// IsOwner reports whether identity may mutate post.
func IsOwner(identity string, hasIdentity bool, post *model.Post) bool {
	return Authorize(identity, hasIdentity, post) == nil
}
