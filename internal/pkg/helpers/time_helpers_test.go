package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

func TestCombineDateTime(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := CombineDateTime("2026-03-15", "09:30")
		require.NoError(t, err)
		want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local)
		require.True(t, got.Equal(want))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := CombineDateTime("15-03-2026", "09:30")
		require.ErrorIs(t, err, apperrors.ErrInvalidDateTime)
	})

	t.Run("bad clock", func(t *testing.T) {
		_, err := CombineDateTime("2026-03-15", "9:30pm")
		require.ErrorIs(t, err, apperrors.ErrInvalidDateTime)
	})
}

func TestResolveEnd(t *testing.T) {
	start, err := CombineDateTime("2026-03-15", "09:00")
	require.NoError(t, err)

	t.Run("explicit end time wins over duration", func(t *testing.T) {
		duration := 30
		end, err := ResolveEnd("2026-03-15", start, "10:15", &duration)
		require.NoError(t, err)
		require.NotNil(t, end)
		require.Equal(t, 75*time.Minute, end.Sub(start))
	})

	t.Run("duration", func(t *testing.T) {
		duration := 45
		end, err := ResolveEnd("2026-03-15", start, "", &duration)
		require.NoError(t, err)
		require.NotNil(t, end)
		require.Equal(t, 45*time.Minute, end.Sub(start))
	})

	t.Run("zero duration falls back to default", func(t *testing.T) {
		duration := 0
		end, err := ResolveEnd("2026-03-15", start, "", &duration)
		require.NoError(t, err)
		require.NotNil(t, end)
		require.Equal(t, time.Duration(DefaultSessionMinutes)*time.Minute, end.Sub(start))
	})

	t.Run("neither leaves the session open", func(t *testing.T) {
		end, err := ResolveEnd("2026-03-15", start, "", nil)
		require.NoError(t, err)
		require.Nil(t, end)
	})

	t.Run("invalid end time", func(t *testing.T) {
		_, err := ResolveEnd("2026-03-15", start, "25:99", nil)
		require.ErrorIs(t, err, apperrors.ErrInvalidDateTime)
	})
}

func TestFormatRoundTrip(t *testing.T) {
	start, err := CombineDateTime("2026-03-15", "09:05")
	require.NoError(t, err)
	require.Equal(t, "2026-03-15", FormatDate(start))
	require.Equal(t, "09:05", FormatClock(start))
}
