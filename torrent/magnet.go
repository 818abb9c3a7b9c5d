package torrent

import (
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
)

var ErrInvalidTorrent = errors.New("invalid torrent metadata")

// MagnetInfo holds everything a magnet link is made of.
type MagnetInfo struct {
	InfoHash metainfo.Hash
	Name     string
	Announce string
	Length   int64
}

// ParseTorrent decodes torrent file bytes. The info hash is computed over the
// canonical re-encoding of the info dictionary, so two files that only differ
// in how their info dictionary was serialized share a hash.
func ParseTorrent(data []byte) (*MagnetInfo, error) {
	var doc map[string]interface{}
	if err := bencode.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTorrent, err)
	}

	info, ok := doc["info"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing info dictionary", ErrInvalidTorrent)
	}

	announce, ok := doc["announce"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing announce", ErrInvalidTorrent)
	}

	name, ok := info["name"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing info.name", ErrInvalidTorrent)
	}

	length, err := infoLength(info)
	if err != nil {
		return nil, err
	}

	canonical, err := bencode.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTorrent, err)
	}

	return &MagnetInfo{
		InfoHash: metainfo.Hash(sha1.Sum(canonical)),
		Name:     name,
		Announce: announce,
		Length:   length,
	}, nil
}

// infoLength returns info.length for single file torrents and the sum of
// info.files[].length for multi file ones.
func infoLength(info map[string]interface{}) (int64, error) {
	if l, ok := info["length"].(int64); ok {
		return l, nil
	}

	files, ok := info["files"].([]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: missing info.length", ErrInvalidTorrent)
	}

	var total int64
	for i, f := range files {
		fd, ok := f.(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("%w: info.files[%d] is not a dictionary", ErrInvalidTorrent, i)
		}
		l, ok := fd["length"].(int64)
		if !ok {
			return 0, fmt.Errorf("%w: missing info.files[%d].length", ErrInvalidTorrent, i)
		}
		total += l
	}

	return total, nil
}

// Base32Hash is the info hash in the form used by the xt parameter.
func (m *MagnetInfo) Base32Hash() string {
	return base32.StdEncoding.EncodeToString(m.InfoHash[:])
}

// String renders magnet:?xt=urn:btih:<base32>&dn=<name>&tr=<announce>&xl=<length>.
func (m *MagnetInfo) String() string {
	var sb strings.Builder
	sb.WriteString("magnet:?xt=urn:btih:")
	sb.WriteString(m.Base32Hash())
	sb.WriteString("&dn=")
	sb.WriteString(url.QueryEscape(m.Name))
	sb.WriteString("&tr=")
	sb.WriteString(url.QueryEscape(m.Announce))
	sb.WriteString("&xl=")
	sb.WriteString(strconv.FormatInt(m.Length, 10))
	return sb.String()
}

// Magnet derives the magnet URI of raw torrent file bytes.
func Magnet(data []byte) (string, error) {
	m, err := ParseTorrent(data)
	if err != nil {
		return "", err
	}

	return m.String(), nil
}
