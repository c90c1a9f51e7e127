package session

import (
	"github.com/inkwell-blog/inkwell/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	// FlashCookieName holds one-shot notices shown after a redirect.
	FlashCookieName = "inkwell_flash"
	flashMaxAge     = 60 * 5
)

// NewFlashStore returns the cookie store behind the flash middleware. It shares
// the codec's attributes but lives for minutes, not days.
func NewFlashStore(secret []byte, codec *Codec) cookie.Store {
	store := cookie.NewStore(secret)
	opts := codec.Options()
	opts.MaxAge = flashMaxAge
	store.Options(opts)
	return store
}

// AddFlash queues msg for the next rendered page.
func AddFlash(c *gin.Context, msg string) {
	s := sessions.Default(c)
	s.AddFlash(msg)
	if err := s.Save(); err != nil {
		logger.Warning("Unable to save flash message:", err)
	}
}

// Flashes drains queued notices.
func Flashes(c *gin.Context) []string {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := s.Save(); err != nil {
		logger.Warning("Unable to clear flash messages:", err)
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
