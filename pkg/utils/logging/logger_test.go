package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestLogger(t *testing.T) {
	t.Run("secret fields are masked", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON, false)
		logger.Info("hello",
			slog.String("secret_key", "xxx"),
			slog.String("normal_key", "aaa"),
		)

		gt.S(t, buf.String()).Contains("aaa").NotContains("xxx")
	})

	t.Run("logger travels in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON, false)
		ctx := logging.With(context.Background(), logger)

		logging.From(ctx).Debug("from context", "alert_id", "a1")
		gt.S(t, buf.String()).Contains("from context").Contains("a1")
	})
}

func TestPlateTextIsMasked(t *testing.T) {
	type sendRequest struct {
		Plate   string
		Message string
	}

	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON, false)
	logger.Info("send", slog.Any("req", sendRequest{Plate: "ABC 123", Message: "lights on"}))

	gt.S(t, buf.String()).Contains("lights on").NotContains("ABC 123")
}

func TestParse(t *testing.T) {
	f, err := logging.ParseFormat("JSON")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatJSON)
	gt.Equal(t, f.String(), "json")

	_, err = logging.ParseFormat("xml")
	gt.Error(t, err)

	lvl, err := logging.ParseLevel("warn")
	gt.NoError(t, err)
	gt.Equal(t, lvl, slog.LevelWarn)

	_, err = logging.ParseLevel("loud")
	gt.Error(t, err)
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelInfo, logging.FormatJSON, false))
	ctx = logging.WithAttrs(ctx, "surface", "background")

	logging.From(ctx).Info("tick")
	gt.S(t, buf.String()).Contains(`"surface":"background"`)
}
