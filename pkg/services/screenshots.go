package services

import (
	"context"
	"fmt"
	"path"

	"github.com/dukex/webmonitor/pkg/capture"
	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

// ScreenshotsRoute is the URL prefix artifacts are served under.
const ScreenshotsRoute = "/screenshots"

type Screenshots struct {
	store       *capture.Store
	persistence persistence.Persistence
}

func NewScreenshots(store *capture.Store, persistence persistence.Persistence) *Screenshots {
	return &Screenshots{
		store:       store,
		persistence: persistence,
	}
}

// WebsiteFolder links a configured website to its artifact folder.
type WebsiteFolder struct {
	URL         string `json:"url"`
	Folder      string `json:"folder"`
	Screenshots int    `json:"screenshots"`
	Latest      string `json:"latest,omitempty"`
}

// List returns the artifacts of folder, newest first.
func (s *Screenshots) List(_ context.Context, folder string) ([]models.Artifact, error) {
	files, err := s.store.List(folder)
	if err != nil {
		return nil, &ServiceError{Op: "list_screenshots", Code: "invalid_folder", Message: err.Error(), Err: err}
	}

	artifacts := make([]models.Artifact, 0, len(files))

	for _, file := range files {
		artifacts = append(artifacts, models.Artifact{
			Filename: file,
			URL:      path.Join(ScreenshotsRoute, folder, file),
		})
	}

	return artifacts, nil
}

// Folders returns one entry per configured website in list order.
func (s *Screenshots) Folders(ctx context.Context) ([]WebsiteFolder, error) {
	websites, err := s.persistence.Websites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load websites: %w", err)
	}

	folders := make([]WebsiteFolder, 0, len(websites))

	for _, url := range websites {
		folder := capture.SanitizeFolderName(url)
		entry := WebsiteFolder{URL: url, Folder: folder}

		if capture.ValidFolderName(folder) {
			files, err := s.store.List(folder)
			if err != nil {
				return nil, err
			}

			entry.Screenshots = len(files)
			if len(files) > 0 {
				entry.Latest = path.Join(ScreenshotsRoute, folder, files[0])
			}
		}

		folders = append(folders, entry)
	}

	return folders, nil
}
