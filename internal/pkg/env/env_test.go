package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := Env
	Env = values
	t.Cleanup(func() { Env = prev })
}

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	withEnv(t, map[string]string{"EVENTPAY_TEST_KEY": "from-file"})
	t.Setenv("EVENTPAY_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("EVENTPAY_TEST_KEY", "def"))
}

func TestGetEnvFallsBackToOS(t *testing.T) {
	withEnv(t, map[string]string{})
	t.Setenv("EVENTPAY_TEST_OS", "from-os")

	assert.Equal(t, "from-os", GetEnv("EVENTPAY_TEST_OS", "def"))
	assert.Equal(t, "def", GetEnv("EVENTPAY_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	withEnv(t, map[string]string{
		"B_TRUE":   "yes",
		"B_FALSE":  "0",
		"B_JUNK":   "maybe",
		"I_OK":     "7",
		"I_BAD":    "seven",
		"D_GO":     "45s",
		"D_SECS":   "30",
		"D_BROKEN": "soon",
	})

	assert.True(t, GetBool("B_TRUE", false))
	assert.False(t, GetBool("B_FALSE", true))
	assert.True(t, GetBool("B_JUNK", true))
	assert.Equal(t, 7, GetInt("I_OK", 1))
	assert.Equal(t, 1, GetInt("I_BAD", 1))
	assert.Equal(t, 45*time.Second, GetDuration("D_GO", time.Second))
	assert.Equal(t, 30*time.Second, GetDuration("D_SECS", time.Second))
	assert.Equal(t, time.Minute, GetDuration("D_BROKEN", time.Minute))
}
