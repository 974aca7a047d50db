// Package report ingests report images: it validates an uploaded file, names
// it, stores it and describes where it can be fetched from.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/hofra/ingest/internal/metrics"
	"github.com/hofra/ingest/internal/storage"
)

// Artifact describes a stored upload.
type Artifact struct {
	Filename string
	Path     string // root-relative path, e.g. "/uploads/reports/<filename>"
	URL      string // absolute, or root-relative when the store has no public host
}

// Service runs the validate → name → store pipeline.
type Service struct {
	validator  *Validator
	namer      *Namer
	store      storage.Storage
	publicPath string
	metrics    *metrics.Recorder
	log        logrus.FieldLogger
}

// NewService creates a new report Service. publicPath is the root-relative
// path stored files are served under.
func NewService(validator *Validator, namer *Namer, store storage.Storage, publicPath string, rec *metrics.Recorder, log logrus.FieldLogger) *Service {
	return &Service{
		validator:  validator,
		namer:      namer,
		store:      store,
		publicPath: strings.TrimRight(publicPath, "/"),
		metrics:    rec,
		log:        log,
	}
}

// MaxFileSize returns the per-file ceiling in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.validator.MaxSize()
}

// Ingest validates u, stores it under a freshly generated name and returns
// the resulting artifact. Nothing is written unless validation passes.
func (s *Service) Ingest(ctx context.Context, u *Upload) (*Artifact, error) {
	artifact, err := s.ingest(ctx, u)

	var size int64
	if u != nil {
		size = u.Size
	}
	s.metrics.Observe(outcomeOf(err), size)
	return artifact, err
}

func (s *Service) ingest(ctx context.Context, u *Upload) (*Artifact, error) {
	mtype, err := s.validator.Validate(u)
	if err != nil {
		entry := s.log.WithError(err)
		if u != nil {
			entry = entry.WithFields(logrus.Fields{
				"user_id": u.UserID,
				"size":    humanize.IBytes(uint64(max(u.Size, 0))),
			})
		}
		entry.Info("upload rejected")
		return nil, err
	}

	name := s.namer.Name(u.UserID, u.Timestamp, u.Filename, mtype.Extension())
	if err := s.store.Save(ctx, name, u.File, u.Size, mtype.String()); err != nil {
		s.log.WithError(err).WithField("filename", name).Error("failed to save upload")
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	s.log.WithFields(logrus.Fields{
		"filename": name,
		"type":     mtype.String(),
		"size":     humanize.IBytes(uint64(max(u.Size, 0))),
	}).Info("upload stored")

	return &Artifact{
		Filename: name,
		Path:     s.publicPath + "/" + name,
		URL:      s.store.PublicURL(name),
	}, nil
}
