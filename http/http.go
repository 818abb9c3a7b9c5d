package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/jkaberg/puntbox/torrent"
	"github.com/jkaberg/puntbox/torrent/store"
)

// Sources is what the status API reads from. It never writes.
type Sources struct {
	Service      *torrent.Service
	Items        store.Lister
	Fs           afero.Fs
	RegistryPath string
	BoxPath      string
	LogPath      string
}

// NewRouter builds the read-only status API.
func NewRouter(src *Sources) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.ErrorLogger())
	r.Use(Logger())

	api := r.Group("/api")
	{
		api.GET("/status", apiStatusHandler(src))
		api.GET("/items", apiItemsHandler(src.Items))
		api.GET("/magnets", apiMagnetsHandler(src.Fs, src.RegistryPath))
		api.GET("/log", apiLogHandler(src.LogPath))
	}

	return r
}

func Logger() gin.HandlerFunc {
	l := log.Logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()
		if raw != "" {
			path = path + "?" + raw
		}
		msg := c.Errors.String()
		if msg == "" {
			msg = "Request"
		}

		s := c.Writer.Status()
		switch {
		case s >= 400 && s < 500:
			l.Warn().Str("path", path).Int("status", s).Msg(msg)
		case s >= 500:
			l.Error().Str("path", path).Int("status", s).Msg(msg)
		default:
			l.Debug().Str("path", path).Int("status", s).Msg(msg)
		}
	}
}
