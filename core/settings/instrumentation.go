package settings

import "go.opentelemetry.io/contrib/bridges/otelslog"

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/core/settings")
