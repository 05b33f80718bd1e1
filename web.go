package edrumulus

import (
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// setupRouter builds the HTTP surface: Prometheus metrics, pad status and
// calibration endpoints, and the monitoring WebSocket.
func setupRouter(engine *trigger.Engine) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", handleMonitorWS(engine))

	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"running":     engine.IsRunning(),
			"sample_rate": engine.SampleRate(),
			"pads":        engine.Status(),
			"metrics":     engine.Metrics(),
		})
	})
	api.GET("/pads", func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Pads())
	})
	api.GET("/pads/:id/calibration", func(c *gin.Context) {
		pad, ok := padFromParam(c, engine)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, pad.Config().Calibration)
	})
	api.PUT("/pads/:id/calibration", func(c *gin.Context) {
		pad, ok := padFromParam(c, engine)
		if !ok {
			return
		}
		var cal trigger.CalibrationProfile
		if err := c.ShouldBindJSON(&cal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := engine.UpdateCalibration(pad.ID(), cal); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		GetHitEventBroadcaster(engine).BroadcastCalibrationChanged(pad.ID())
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func padFromParam(c *gin.Context, engine *trigger.Engine) (*trigger.PadChannel, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pad id"})
		return nil, false
	}
	pad, err := engine.Pad(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return pad, true
}

// handleMonitorWS upgrades the connection and subscribes it to monitoring
// events until the client goes away.
func handleMonitorWS(engine *trigger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // the monitoring GUI runs on localhost
		})
		if err != nil {
			logger.Warn().Err(err).Msg("websocket accept failed")
			return
		}

		connectionID := uuid.New().String()
		l := logger.With().Str("connectionID", connectionID).Logger()
		ctx := c.Request.Context()

		broadcaster := GetHitEventBroadcaster(engine)
		broadcaster.Subscribe(connectionID, conn, ctx, &l)
		defer broadcaster.Unsubscribe(connectionID)

		// Monitoring is one-way; block until the peer disconnects.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				break
			}
		}
		_ = conn.CloseNow()
	}
}
