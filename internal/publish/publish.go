package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aircheq-podcast/internal/convert"
	"aircheq-podcast/internal/crawl"
	"aircheq-podcast/internal/fileutil"
	"aircheq-podcast/internal/logging"
	"aircheq-podcast/internal/ownership"
	"aircheq-podcast/internal/services"
)

const stageName = "publish"

// repackaged maps source extensions that must change container to the
// extension they are published under.
var repackaged = map[string]string{
	"m2ts": "mp4",
}

var mimeTypes = map[string]string{
	"m4a": "audio/mp4",
	"aac": "audio/aac",
	"mp4": "video/mp4",
	"flv": "video/x-flv",
}

// Item describes a file that now exists in the publish root.
type Item struct {
	Filename string
	Ext      string
	Path     string
	// URL is filled in once the item has been added to a feed.
	URL      string
	Size     int64
	MIMEType string
	// Created is the creation time of the source recording.
	Created time.Time
}

// Publisher copies or repackages selections into a destination directory.
type Publisher struct {
	converter convert.Converter
	owner     ownership.Owner
	identity  string
	logger    *slog.Logger
}

// New constructs a Publisher. A nil owner disables ownership handoff.
func New(converter convert.Converter, owner ownership.Owner, identity string, logger *slog.Logger) *Publisher {
	if owner == nil {
		owner = ownership.Noop
	}
	return &Publisher{
		converter: converter,
		owner:     owner,
		identity:  strings.TrimSpace(identity),
		logger:    logging.NewComponentLogger(logger, "publisher"),
	}
}

// DestinationName returns the file name a source is published under.
func DestinationName(name, ext string) (string, string) {
	target, ok := repackaged[ext]
	if !ok {
		return name, ext
	}
	return strings.TrimSuffix(name, "."+ext) + "." + target, target
}

// MIMEType returns the enclosure type advertised for ext.
func MIMEType(ext string) string {
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Publish places sel into destRoot and returns the resulting item.
func (p *Publisher) Publish(ctx context.Context, sel crawl.Candidate, destRoot string) (Item, error) {
	if p == nil {
		return Item{}, services.Wrap(services.ErrCopy, stageName, "init", "publisher not initialized", nil)
	}
	if err := ctx.Err(); err != nil {
		return Item{}, services.Wrap(services.ErrCopy, stageName, "start", "cancelled", err)
	}
	logger := logging.WithContext(ctx, p.logger)

	src, err := filepath.Abs(sel.Path)
	if err != nil {
		return Item{}, services.Wrap(services.ErrCopy, stageName, "resolve source", sel.Path, err)
	}
	root, err := filepath.Abs(destRoot)
	if err != nil {
		return Item{}, services.Wrap(services.ErrCopy, stageName, "resolve destination", destRoot, err)
	}
	name, ext := DestinationName(filepath.Base(src), sel.Ext)
	dst := filepath.Join(root, name)
	if dst == src {
		return Item{}, services.Wrap(services.ErrCopy, stageName, "resolve destination", "source and destination are the same file", nil)
	}

	// An earlier query may already own dst; failures before the file is
	// replaced leave it untouched.
	_, statErr := os.Lstat(dst)
	existed := statErr == nil

	if ext != sel.Ext {
		if p.converter == nil {
			return Item{}, services.Wrap(services.ErrConversion, stageName, "convert", "no converter configured", nil)
		}
		if err := p.converter.Convert(ctx, src, dst); err != nil {
			return Item{}, services.Wrap(services.ErrConversion, stageName, "convert", name, err)
		}
	} else {
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return Item{}, services.Wrap(services.ErrCopy, stageName, "copy", name, err)
		}
	}

	if err := p.owner.SetOwner(dst, p.identity); err != nil {
		p.discard(dst, existed)
		return Item{}, services.Wrap(services.ErrOwnership, stageName, "chown", name, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		p.discard(dst, existed)
		return Item{}, services.Wrap(services.ErrCopy, stageName, "stat destination", name, err)
	}

	item := Item{
		Filename: name,
		Ext:      ext,
		Path:     dst,
		Size:     info.Size(),
		MIMEType: MIMEType(ext),
		Created:  sel.Created,
	}
	logger.Info("recording published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Bool("repackaged", ext != sel.Ext),
		logging.Int64("size_bytes", item.Size),
	)
	return item, nil
}

// discard removes a destination this call created. A file that was already
// present belongs to an earlier publication and stays in place.
func (p *Publisher) discard(dst string, existed bool) {
	if existed {
		return
	}
	_ = os.Remove(dst)
}

// String renders the item for diagnostics.
func (i Item) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", i.Filename, i.MIMEType, i.Size)
}
