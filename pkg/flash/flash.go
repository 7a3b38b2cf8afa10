// Package flash carries one-shot messages across a redirect in a cookie
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

const (
	cookieName = "flash"
	pendingKey = "flash.pending"
)

// Categories match the bootstrap alert classes used by the templates
const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Set queues a message for the next page the client renders. Messages set
// during the same request are kept in order
func Set(c *gin.Context, category, text string) {
	msgs := append(pending(c), Message{Category: category, Text: text})
	c.Set(pendingKey, msgs)

	write(c, encode(msgs), 0)
}

// Pop returns every pending message and clears them
func Pop(c *gin.Context) []Message {
	msgs := pending(c)
	c.Set(pendingKey, []Message(nil))

	if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
		msgs = append(decode(raw), msgs...)
		write(c, "", -1)
	} else if len(msgs) > 0 {
		write(c, "", -1)
	}

	return msgs
}

func pending(c *gin.Context) []Message {
	if v, ok := c.Get(pendingKey); ok {
		if msgs, ok := v.([]Message); ok {
			return msgs
		}
	}

	return nil
}

func write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, value, maxAge, "/", "", viper.GetBool("host.ssl.enabled"), true)
}

func encode(msgs []Message) string {
	b, _ := json.Marshal(msgs)
	return base64.RawURLEncoding.EncodeToString(b)
}

// decode drops anything it can't read. A tampered flash cookie only
// loses its messages
func decode(raw string) []Message {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}

	return msgs
}
