package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/falkben/media-organizer/pkg/resolver"
	"github.com/spf13/afero"
	log "github.com/sirupsen/logrus"
)

// Resolver is the single-path resolution the processor drives.
type Resolver interface {
	Resolve(ctx context.Context, path string) (*resolver.Resolution, error)
}

// ProcessorInterface defines the methods for scanning a library directory.
type ProcessorInterface interface {
	ScanDirectory(ctx context.Context, rootPath string, recursive bool) ([]string, error)
	ResolveDirectory(ctx context.Context, rootPath string, recursive bool) (*Report, error)
}

// Ensure Processor implements ProcessorInterface
var _ ProcessorInterface = (*Processor)(nil)

// Known video extensions
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".m4v": true, ".mpg": true, ".mpeg": true, ".ts": true, ".webm": true,
}

// IsVideoFile reports whether path has a known video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Item is the outcome of resolving one scanned file.
type Item struct {
	Path       string               `json:"path" yaml:"path"`
	Resolution *resolver.Resolution `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a directory run.
type Report struct {
	Root     string `json:"root" yaml:"root"`
	Items    []Item `json:"items" yaml:"items"`
	LocalHit int    `json:"local_hit" yaml:"local_hit"`
	Fetched  int    `json:"fetched" yaml:"fetched"`
	NotFound int    `json:"not_found" yaml:"not_found"`
	Failed   int    `json:"failed" yaml:"failed"`
}

// Processor walks a movie library and resolves every video file in it.
type Processor struct {
	fs       afero.Fs
	resolver Resolver
	logger   *log.Logger

	// ItemTimeout bounds each file's resolution. Zero means no bound.
	ItemTimeout time.Duration
}

// NewProcessor creates a new Processor. A nil fs uses the OS filesystem.
func NewProcessor(fs afero.Fs, r Resolver, logger *log.Logger) *Processor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Processor{
		fs:       fs,
		resolver: r,
		logger:   logger,
	}
}

// ScanDirectory lists the video files under rootPath in lexical order.
// Unreadable entries are logged and skipped.
func (p *Processor) ScanDirectory(ctx context.Context, rootPath string, recursive bool) ([]string, error) {
	var videos []string

	err := afero.Walk(p.fs, rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			p.logger.Warnf("Error accessing path %q: %v", path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			p.logger.Info("Context cancelled during directory scan")
			return ctx.Err()
		}

		if info.IsDir() {
			if path != rootPath && !recursive {
				p.logger.Debugf("Skipping directory (not recursive): %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if IsVideoFile(path) {
			videos = append(videos, path)
		}
		return nil
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		p.logger.Errorf("Error walking directory %q: %v", rootPath, err)
		return nil, err
	}

	p.logger.Infof("Scan complete. Found %d video files in %s (Recursive: %t)", len(videos), rootPath, recursive)
	return videos, nil
}

// ResolveDirectory scans rootPath and resolves each video file in turn.
// A failed file is recorded in the report and does not stop the run;
// cancelling ctx does.
func (p *Processor) ResolveDirectory(ctx context.Context, rootPath string, recursive bool) (*Report, error) {
	videos, err := p.ScanDirectory(ctx, rootPath, recursive)
	if err != nil {
		return nil, err
	}

	report := &Report{Root: rootPath, Items: make([]Item, 0, len(videos))}
	for _, path := range videos {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		item := Item{Path: path}
		res, err := p.resolveOne(ctx, path)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			p.logger.Warnf("  Failed to resolve %s: %v", filepath.Base(path), err)
			item.Error = err.Error()
			report.Failed++
		case res.Outcome == resolver.OutcomeLocalHit:
			report.LocalHit++
		case res.Outcome == resolver.OutcomeFetched:
			report.Fetched++
		default:
			p.logger.Infof("  No metadata found for %s", filepath.Base(path))
			report.NotFound++
		}
		item.Resolution = res
		report.Items = append(report.Items, item)
	}

	p.logger.Infof("Processing complete. %d local, %d fetched, %d not found, %d failed.",
		report.LocalHit, report.Fetched, report.NotFound, report.Failed)
	return report, nil
}

func (p *Processor) resolveOne(ctx context.Context, path string) (*resolver.Resolution, error) {
	if p.ItemTimeout <= 0 {
		return p.resolver.Resolve(ctx, path)
	}
	ctx, cancel := context.WithTimeout(ctx, p.ItemTimeout)
	defer cancel()
	return p.resolver.Resolve(ctx, path)
}
