package http

import "github.com/jkaberg/puntbox/torrent"

type Error struct {
	Error string `json:"error"`
}

type Status struct {
	Box          string               `json:"box"`
	ConfigLoaded bool                 `json:"configLoaded"`
	Items        int                  `json:"items"`
	Stats        *torrent.GlobalStats `json:"stats"`
}
