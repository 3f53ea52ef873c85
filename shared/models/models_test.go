package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationPreferencesToggle(t *testing.T) {
	keys := []string{"email_payment", "email_subscription", "email_expiry", "push_payment", "push_subscription", "push_expiry"}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			p := DefaultNotificationPreferences()
			before := p.Value(key)
			assert.True(t, p.Toggle(key))
			assert.Equal(t, !before, p.Value(key))
		})
	}

	p := DefaultNotificationPreferences()
	assert.False(t, p.Toggle("sms"))
	assert.False(t, p.Value("sms"))
	assert.Equal(t, DefaultNotificationPreferences(), p)
}

func TestVisaViewMatchesWithoutPassport(t *testing.T) {
	v := VisaView{VisaNumber: "X-1", Country: "Peru"}
	assert.True(t, v.Matches(""))
	assert.True(t, v.Matches("peru"))
	assert.False(t, v.Matches("ada"))
}
