// Package storage persists narration audio and returns the URL it is served from.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nijaru/golf-directory/errors"
)

type AudioStore interface {
	SaveAudio(ctx context.Context, name string, data []byte) (string, error)
}

// AudioFileName is the object name for a video's narration.
func AudioFileName(videoID string) string {
	return fmt.Sprintf("jim-nantz-%s.mp3", videoID)
}

// LocalStore writes files under Dir and serves them under PublicPrefix.
type LocalStore struct {
	Dir          string
	PublicPrefix string
}

func NewLocalStore(dir, publicPrefix string) (*LocalStore, error) {
	const op = "storage.NewLocalStore"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Config(op, err, fmt.Sprintf("cannot create audio dir %s", dir))
	}
	if publicPrefix == "" {
		publicPrefix = "/audio"
	}
	return &LocalStore{Dir: dir, PublicPrefix: publicPrefix}, nil
}

func (s *LocalStore) SaveAudio(_ context.Context, name string, data []byte) (string, error) {
	const op = "LocalStore.SaveAudio"

	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", errors.InvalidInput(op, nil, "invalid audio file name")
	}

	tmp := filepath.Join(s.Dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", errors.Persistence(op, err, "failed to write audio")
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, name)); err != nil {
		os.Remove(tmp)
		return "", errors.Persistence(op, err, "failed to move audio into place")
	}
	return path.Join(s.PublicPrefix, name), nil
}
