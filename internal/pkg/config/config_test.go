//go:build unit

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("DB_USER", "villa")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "villa_booking")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadConfig(t *testing.T) {
	t.Run("正常系: デフォルト値が適用される", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "UTC", cfg.Booking.TimeZone)
		assert.Equal(t, time.UTC, cfg.Booking.Location())
		assert.Equal(t, 365, cfg.Booking.WindowDays)
	})

	t.Run("正常系: IANAタイムゾーンを解決する", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("BOOKING_TIMEZONE", "Europe/Lisbon")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Lisbon", cfg.Booking.Location().String())
	})

	t.Run("異常系: 必須項目が欠けている", func(t *testing.T) {
		setRequiredEnv(t)
		require.NoError(t, os.Unsetenv("JWT_SECRET"))

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("異常系: 未知のタイムゾーンは起動を止める", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("BOOKING_TIMEZONE", "Europe/Lisbonn")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOOKING_TIMEZONE")
	})

	t.Run("異常系: 表示期間が0日", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("BOOKING_WINDOW_DAYS", "0")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOOKING_WINDOW_DAYS")
	})
}

func TestBookingConfig_Validate(t *testing.T) {
	valid := NewTestConfig().Booking
	assert.NoError(t, valid.Validate())

	negative := valid
	negative.LookbackDays = -1
	assert.Error(t, negative.Validate())
}
