package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := Config{
		Password:        "secret",
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
	assert.NoError(t, base.Validate())

	noPassword := base
	noPassword.Password = ""
	assert.Error(t, noPassword.Validate())

	idleExceedsOpen := base
	idleExceedsOpen.MaxIdleConns = 30
	assert.Error(t, idleExceedsOpen.Validate())

	zeroOpen := base
	zeroOpen.MaxOpenConns = 0
	assert.Error(t, zeroOpen.Validate())

	negativeIdle := base
	negativeIdle.MaxIdleConns = -1
	assert.Error(t, negativeIdle.Validate())
}
