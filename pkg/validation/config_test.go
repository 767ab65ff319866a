package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidator_Checks(t *testing.T) {
	cases := []struct {
		name  string
		check func(*ConfigValidator)
		field string // empty when the check should pass
	}{
		{"required empty", func(v *ConfigValidator) { v.Required("addr", "") }, "server.addr"},
		{"required set", func(v *ConfigValidator) { v.Required("addr", "127.0.0.1:8787") }, ""},
		{"range below", func(v *ConfigValidator) { v.RangeInt("burst", 0, 1, 10) }, "server.burst"},
		{"range bounds", func(v *ConfigValidator) { v.RangeInt("burst", 1, 1, 1) }, ""},
		{"range above", func(v *ConfigValidator) { v.RangeInt("burst", 11, 1, 10) }, "server.burst"},
		{"positive zero", func(v *ConfigValidator) { v.Positive("max_body_bytes", 0) }, "server.max_body_bytes"},
		{"positive negative", func(v *ConfigValidator) { v.Positive("max_body_bytes", -1) }, "server.max_body_bytes"},
		{"positive", func(v *ConfigValidator) { v.Positive("max_body_bytes", 1<<20) }, ""},
		{"float zero", func(v *ConfigValidator) { v.PositiveFloat("rps", 0) }, "server.rps"},
		{"float", func(v *ConfigValidator) { v.PositiveFloat("rps", 0.5) }, ""},
		{"duration zero", func(v *ConfigValidator) { v.RangeDuration("read_timeout", 0, time.Second, time.Hour) }, "server.read_timeout"},
		{"duration", func(v *ConfigValidator) { v.RangeDuration("read_timeout", 15*time.Second, time.Second, time.Hour) }, ""},
		{"one of miss", func(v *ConfigValidator) { v.OneOf("mode", "scrypt", []string{"pbkdf2", "argon2"}) }, "server.mode"},
		{"one of hit", func(v *ConfigValidator) { v.OneOf("mode", "argon2", []string{"pbkdf2", "argon2"}) }, ""},
		{"when true", func(v *ConfigValidator) { v.When(true, func(v *ConfigValidator) { v.Required("path", "") }) }, "server.path"},
		{"when false", func(v *ConfigValidator) { v.When(false, func(v *ConfigValidator) { v.Required("path", "") }) }, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cv := NewConfigValidator("server")
			tc.check(cv)

			err := cv.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestConfigValidator_CustomWraps(t *testing.T) {
	sentinel := errors.New("level not recognised")

	cv := NewConfigValidator("logging").Custom("level", func() error { return sentinel })
	assert.ErrorIs(t, cv.Validate(), sentinel)

	cv = NewConfigValidator("logging").Custom("level", func() error { return nil })
	assert.NoError(t, cv.Validate())
}

func TestConfigValidator_CollectsEveryError(t *testing.T) {
	cv := NewConfigValidator("server").
		Required("addr", "").
		Positive("max_body_bytes", -1).
		RangeDuration("idle_timeout", 0, time.Second, time.Hour)

	require.Len(t, cv.Errors(), 3)
	err := cv.Validate()
	for _, e := range cv.Errors() {
		assert.ErrorIs(t, err, e)
	}
}
