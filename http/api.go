package http

import (
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/jkaberg/puntbox/torrent"
	"github.com/jkaberg/puntbox/torrent/store"
)

// the log endpoint only returns the tail of the current file
const logTailBytes = 64 * 1024

var apiStatusHandler = func(src *Sources) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		items, err := src.Items.List()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, Error{Error: err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, &Status{
			Box:          src.BoxPath,
			ConfigLoaded: src.Service.ConfigLoaded(),
			Items:        len(items),
			Stats:        src.Service.Stats().GlobalStats(),
		})
	}
}

var apiItemsHandler = func(l store.Lister) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		items, err := l.List()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, Error{Error: err.Error()})
			return
		}
		if items == nil {
			items = []*store.Item{}
		}

		ctx.JSON(http.StatusOK, items)
	}
}

// apiMagnetsHandler serves the registry document as users see it.
var apiMagnetsHandler = func(fs afero.Fs, path string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		r := torrent.NewRegistry(fs, path)
		r.Load()
		ctx.JSON(http.StatusOK, r.Magnets())
	}
}

var apiLogHandler = func(path string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		f, err := os.Open(path)
		if err != nil {
			ctx.JSON(http.StatusNotFound, Error{Error: err.Error()})
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, Error{Error: err.Error()})
			return
		}

		if fi.Size() > logTailBytes {
			if _, err := f.Seek(-logTailBytes, io.SeekEnd); err != nil {
				ctx.JSON(http.StatusInternalServerError, Error{Error: err.Error()})
				return
			}
		}

		b, err := io.ReadAll(f)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, Error{Error: err.Error()})
			return
		}

		ctx.Data(http.StatusOK, "text/plain; charset=utf-8", b)
	}
}
