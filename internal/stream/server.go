package stream

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Garsondee/Court-Sense/internal/game"
)

type statusResponse struct {
	Session string `json:"session"`
	Tick    int    `json:"tick"`
	Paused  bool   `json:"paused"`
	Viewers int    `json:"viewers"`
}

// speedRequest names a preset, or carries a custom speed in m/s with the
// preset empty or "custom".
type speedRequest struct {
	Preset string   `json:"preset"`
	Speed  *float64 `json:"speed"`
}

// NewRouter exposes the runner over HTTP:
//
//	GET  /ws        websocket snapshot stream
//	GET  /snapshot  current state
//	POST /resume    start play
//	POST /pause     stop play
//	POST /ball-speed {"preset": "slow"} or {"speed": 3.5}
//	POST /pass-options {"prediction": false, "pass_pause": true}
//	GET  /health
func NewRouter(r *Runner, hub *Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request, r.SnapshotMessage)
	})
	router.GET("/snapshot", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot())
	})
	router.POST("/resume", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.status(r.Resume(), hub))
	})
	router.POST("/pause", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.status(r.Pause(), hub))
	})
	router.POST("/ball-speed", func(c *gin.Context) {
		var req speedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var bp game.BallSpeedPreset
		if req.Preset != "" {
			if err := bp.UnmarshalText([]byte(req.Preset)); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset " + req.Preset})
				return
			}
		} else {
			bp = game.BallCustom
		}
		switch {
		case bp != game.BallCustom && req.Speed == nil:
			c.JSON(http.StatusOK, r.status(r.SetBallSpeed(bp), hub))
		case bp == game.BallCustom && req.Speed != nil && *req.Speed > 0:
			c.JSON(http.StatusOK, r.status(r.SetBallTargetSpeed(*req.Speed), hub))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "need a preset or a positive custom speed"})
		}
	})
	router.POST("/pass-options", func(c *gin.Context) {
		var o PassOptions
		if err := c.ShouldBindJSON(&o); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, r.status(r.SetPassOptions(o), hub))
	})
	return router
}

func (r *Runner) status(snap game.SimSnapshot, hub *Hub) statusResponse {
	return statusResponse{
		Session: r.session,
		Tick:    snap.Tick,
		Paused:  snap.Paused,
		Viewers: hub.Len(),
	}
}
