package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-voice/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var actionCounter metric.Int64Counter

func init() {
	var err error
	actionCounter, err = meter.Int64Counter(
		"ema_voice.actions",
		metric.WithDescription("Utterances classified while the assistant is active, by action kind."),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		otel.Handle(err)
	}
}
