package torrent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jkaberg/puntbox/box"
	"github.com/jkaberg/puntbox/torrent/watchers"
)

type Op int

const (
	OpCreate Op = iota
	OpDelete
	OpModify
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	case OpModify:
		return "modify"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Action is a normalized event on an absolute path.
type Action struct {
	Op   Op
	Path string
}

// Normalize maps one raw event to the actions it stands for, in the order
// they must be handled.
func Normalize(ev watchers.Event) []Action {
	switch ev.Kind {
	case watchers.Moved:
		return []Action{{OpDelete, ev.Path}, {OpCreate, ev.Dest}}
	case watchers.Modified:
		return []Action{{OpModify, ev.Path}}
	case watchers.Created:
		return []Action{{OpCreate, ev.Path}}
	case watchers.Deleted:
		return []Action{{OpDelete, ev.Path}}
	}
	return nil
}

type Target int

const (
	TargetDrop Target = iota
	TargetConfig
	TargetItem
)

// Classify resolves an absolute path against the box root. The returned
// relative path uses forward slashes and is only meaningful for
// TargetConfig and TargetItem.
func Classify(root, p string) (string, Target) {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == "" {
		return "", TargetDrop
	}

	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", TargetDrop
	}

	for _, s := range strings.Split(rel, "/") {
		if strings.HasPrefix(s, ".") && s != "." && s != ".." {
			return "", TargetDrop
		}
	}

	switch rel {
	case box.RegistryFileName:
		return "", TargetDrop
	case box.ConfigFileName:
		return rel, TargetConfig
	}

	return rel, TargetItem
}
