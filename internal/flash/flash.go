// Package flash holds transient one-shot user messages in the session. A
// message pushed during one request is rendered on the next page load and
// then discarded.
package flash

import (
	"encoding/json"

	"bitbites-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const sessionKey = "flash_messages"

type Message struct {
	Level string `json:"level"` // success | error | warning
	Text  string `json:"text"`
}

var (
	store       *session.Store
	userNameKey string
	userRoleKey string
)

// Init wires the session store and the request-locals keys under which the
// auth middleware publishes the signed-in user. Taking the keys here keeps
// them in one place without this package importing auth.
func Init(s *session.Store, nameKey, roleKey string) {
	store = s
	userNameKey = nameKey
	userRoleKey = roleKey
}

func Success(c *fiber.Ctx, text string) { push(c, "success", text) }
func Error(c *fiber.Ctx, text string)   { push(c, "error", text) }
func Warning(c *fiber.Ctx, text string) { push(c, "warning", text) }

func push(c *fiber.Ctx, level, text string) {
	sess, err := store.Get(c)
	if err != nil {
		zap.S().Warnw("flash session unavailable", "error", err)
		return
	}

	msgs := decode(sess.Get(sessionKey))
	msgs = append(msgs, Message{Level: level, Text: text})

	// stored as JSON so the session codec needs no type registration
	b, _ := json.Marshal(msgs)
	sess.Set(sessionKey, string(b))
	if err := sess.Save(); err != nil {
		zap.S().Warnw("flash session save failed", "error", err)
	}
}

// Pop returns the pending messages and clears them.
func Pop(c *fiber.Ctx) []Message {
	sess, err := store.Get(c)
	if err != nil {
		return nil
	}

	msgs := decode(sess.Get(sessionKey))
	if len(msgs) == 0 {
		return nil
	}

	sess.Delete(sessionKey)
	if err := sess.Save(); err != nil {
		zap.S().Warnw("flash session save failed", "error", err)
	}
	return msgs
}

func decode(raw interface{}) []Message {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(s), &msgs); err != nil {
		return nil
	}
	return msgs
}

// Render wraps c.Render, attaching pending flash messages and the signed-in
// user (when the auth middleware has populated the request locals).
func Render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	bind["Flashes"] = Pop(c)
	if un, ok := c.Locals(userNameKey).(string); ok {
		bind["UserName"] = un
	}
	if role, ok := c.Locals(userRoleKey).(models.UserRole); ok {
		bind["Role"] = string(role)
	}
	return c.Render(name, bind)
}
