package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// ErrInvalidFolder is returned when a folder name is not a sanitized URL folder.
var ErrInvalidFolder = errors.New("invalid screenshot folder")

// Store keeps screenshot artifacts on an afero filesystem, one folder per URL.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a store writing under root on the OS filesystem.
func NewStore(root string) *Store {
	return NewStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root), root)
}

// NewStoreFs returns a store on fsys. root is only used to build reported paths.
func NewStoreFs(fsys afero.Fs, root string) *Store {
	return &Store{
		fs:   fsys,
		root: root,
	}
}

// Fs exposes the underlying filesystem, e.g. for static file serving.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Root returns the directory artifacts are reported under.
func (s *Store) Root() string {
	return s.root
}

// Prepare creates the folder of url if absent and returns the folder name.
func (s *Store) Prepare(url string) (string, error) {
	folder := SanitizeFolderName(url)
	if folder == "" {
		return "", fmt.Errorf("%w: empty folder name for %q", ErrInvalidFolder, url)
	}

	err := s.fs.MkdirAll(folder, 0o750)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot folder %s: %w", folder, err)
	}

	return folder, nil
}

// Save writes png as the artifact of folder taken at t and returns its path.
func (s *Store) Save(folder string, t time.Time, png []byte) (string, error) {
	name := filepath.Join(folder, ArtifactFilename(t))

	err := afero.WriteFile(s.fs, name, png, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to write screenshot %s: %w", name, err)
	}

	return filepath.Join(s.root, name), nil
}

// List returns the artifact file names of folder, newest first. A folder
// that does not exist yields an empty list.
func (s *Store) List(folder string) ([]string, error) {
	if !ValidFolderName(folder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
	}

	entries, err := afero.ReadDir(s.fs, folder)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots in %s: %w", folder, err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !IsArtifactFilename(entry.Name()) {
			continue
		}

		files = append(files, entry.Name())
	}

	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	return files, nil
}

// Folders returns the names of all artifact folders.
func (s *Store) Folders() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, ".")
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list screenshot folders: %w", err)
	}

	folders := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}

	sort.Strings(folders)

	return folders, nil
}
