// Package debugger dumps raw wire frames when debug logging is on.
package debugger

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFrame logs one socket frame at debug level, pretty-printed when it is JSON. It costs
// nothing when debug is off.
func LogFrame(logger *zap.Logger, direction string, frame []byte) {
	ce := logger.Check(zapcore.DebugLevel, "Socket frame")
	if ce == nil {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, frame, "", "  "); err == nil {
		ce.Write(zap.String("direction", direction), zap.String("frame", pretty.String()))
		return
	}
	ce.Write(zap.String("direction", direction), zap.ByteString("frame", frame))
}
