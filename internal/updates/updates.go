// Package updates keeps bundled scripts in step with their GitHub
// repositories. A repository's version is the head commit SHA recorded in the
// .version file beside the script when it was downloaded.
package updates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/pkg/catalog"
)

// ErrNotFound is returned when no candidate location in the repository holds
// the script.
var ErrNotFound = errors.New("script not found in repository")

// Source is the remote that hosts script repositories.
type Source interface {
	LatestCommit(ctx context.Context, repo string) (string, error)
	FileContent(ctx context.Context, repo, path string) ([]byte, error)
}

// Status compares the installed version of a repository with the remote.
type Status struct {
	Repo string `json:"repo"`
	// HasUpdate is true when the versions differ or nothing is installed.
	HasUpdate bool `json:"hasUpdate"`
	// CurrentVersion is empty when no version file exists.
	CurrentVersion string `json:"currentVersion,omitempty"`
	LatestVersion  string `json:"latestVersion"`
	// CheckedAt is when the remote was last queried or the script downloaded.
	CheckedAt time.Time `json:"checkedAt"`
}

// Installed reports whether a version file was found.
func (s Status) Installed() bool { return s.CurrentVersion != "" }

// Download describes a completed download.
type Download struct {
	Repo string
	// Path is where the script was written.
	Path string
	// FoundAt is the repository path the content came from.
	FoundAt string
	Version string
}

// Service checks and downloads scripts. Check results are cached for the
// life of the Service, so each repository is queried at most once unless
// Refresh or Download replaces the entry.
type Service struct {
	src    Source
	layout catalog.Layout
	log    logrus.FieldLogger

	mu    sync.Mutex
	cache map[string]Status
}

// NewService returns a Service writing under layout.
func NewService(src Source, layout catalog.Layout, log logrus.FieldLogger) *Service {
	return &Service{src: src, layout: layout, log: log, cache: make(map[string]Status)}
}

// Check returns the cached status for repo, querying the remote on first use.
// Failed checks are not cached.
func (s *Service) Check(ctx context.Context, repo string) (Status, error) {
	s.mu.Lock()
	st, ok := s.cache[repo]
	s.mu.Unlock()
	if ok {
		s.log.WithField("repo", repo).Debug("Using cached version check")
		return st, nil
	}
	return s.Refresh(ctx, repo)
}

// Refresh queries the remote for repo and replaces the cached status.
func (s *Service) Refresh(ctx context.Context, repo string) (Status, error) {
	latest, err := s.src.LatestCommit(ctx, repo)
	if err != nil {
		return Status{}, fmt.Errorf("check %s: %w", repo, err)
	}
	latest = strings.TrimSpace(latest)

	st := Status{Repo: repo, LatestVersion: latest, HasUpdate: true, CheckedAt: time.Now()}
	current, err := readVersion(s.layout.VersionFile(repo))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.log.WithField("repo", repo).Debug("No local version file found")
	case err != nil:
		return Status{}, fmt.Errorf("check %s: %w", repo, err)
	default:
		st.CurrentVersion = current
		st.HasUpdate = current != latest
	}

	s.log.WithFields(logrus.Fields{
		"repo":   repo,
		"local":  short(st.CurrentVersion),
		"latest": short(latest),
		"match":  !st.HasUpdate,
	}).Info("Version check")

	s.store(st)
	return st, nil
}

// Cached returns the cached status without querying the remote.
func (s *Service) Cached(repo string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.cache[repo]
	return st, ok
}

func (s *Service) store(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[st.Repo] = st
}

// Candidates lists where a script may live in its repository, in the order
// they are tried.
func Candidates(d catalog.ScriptDescriptor) []string {
	return []string{
		d.File,
		"src/" + d.File,
		"scripts/" + d.File,
		d.Repo + ".ps1",
	}
}

// Download fetches d's script from the first candidate path that exists,
// writes it and its version file, and marks the repository up to date.
func (s *Service) Download(ctx context.Context, d catalog.ScriptDescriptor) (Download, error) {
	log := s.log.WithFields(logrus.Fields{"repo": d.Repo, "file": d.File})

	var (
		content []byte
		foundAt string
	)
	for _, candidate := range Candidates(d) {
		b, err := s.src.FileContent(ctx, d.Repo, candidate)
		if err == nil {
			content, foundAt = b, candidate
			break
		}
		if ctx.Err() != nil {
			return Download{}, ctx.Err()
		}
		log.WithError(err).WithField("candidate", candidate).Debug("Candidate not available")
	}
	if foundAt == "" {
		return Download{}, fmt.Errorf("%w: %s", ErrNotFound, d.Repo)
	}

	path := s.layout.ScriptPath(d)
	if err := os.MkdirAll(s.layout.RepoDir(d.Repo), 0o755); err != nil {
		return Download{}, fmt.Errorf("create %s: %w", s.layout.RepoDir(d.Repo), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return Download{}, fmt.Errorf("write %s: %w", path, err)
	}

	latest, err := s.src.LatestCommit(ctx, d.Repo)
	if err != nil {
		return Download{Repo: d.Repo, Path: path, FoundAt: foundAt}, fmt.Errorf("script saved but version unknown: %w", err)
	}
	latest = strings.TrimSpace(latest)
	if err := os.WriteFile(s.layout.VersionFile(d.Repo), []byte(latest), 0o644); err != nil {
		return Download{Repo: d.Repo, Path: path, FoundAt: foundAt}, fmt.Errorf("save version: %w", err)
	}

	s.store(Status{Repo: d.Repo, CurrentVersion: latest, LatestVersion: latest, CheckedAt: time.Now()})
	log.WithFields(logrus.Fields{"found_at": foundAt, "version": short(latest)}).Info("Downloaded script")
	return Download{Repo: d.Repo, Path: path, FoundAt: foundAt, Version: latest}, nil
}

// DownloadAll downloads every script in order. A failure does not stop the
// remaining downloads; report is called once per script. The returned error
// joins every failure.
func (s *Service) DownloadAll(ctx context.Context, scripts []catalog.ScriptDescriptor, report func(catalog.ScriptDescriptor, Download, error)) error {
	var errs []error
	for _, d := range scripts {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		dl, err := s.Download(ctx, d)
		if report != nil {
			report(d, dl, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Repo, err))
		}
	}
	return errors.Join(errs...)
}

func readVersion(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
