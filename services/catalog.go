package services

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"jukebox/logger"
	"jukebox/types"

	"github.com/goccy/go-json"
)

var (
	// ErrNotFound is returned when no song has the requested id
	ErrNotFound = errors.New("song not found")

	// ErrMissingQuery is returned when a search is made without a query
	ErrMissingQuery = errors.New("query parameter 'q' is required")

	// ErrStreamFileMissing is returned when a song has no <title>.mp3 on disk
	ErrStreamFileMissing = errors.New("audio file not found")
)

// BuildError reports a catalog build that had to be abandoned
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("catalog build failed at %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// MetadataExtractor reads whatever metadata a file carries
type MetadataExtractor interface {
	ExtractAudioMetadata(filePath string) (*types.AudioMetadata, error)
}

// BuildProgress is called after each directory entry is processed
type BuildProgress func(done, total int)

// CatalogStore owns the song list and its persisted copy
type CatalogStore interface {
	All() []types.Song
	Get(id int) (types.Song, error)
	Search(query string) []types.Song
	IncrementPlayCount(id int) (types.Song, error)
	Len() int
	Path() string
}

// catalogStore guards the list with a RWMutex. Mutations hold the write
// lock until the file has been rewritten.
type catalogStore struct {
	mu    sync.RWMutex
	songs []types.Song
	path  string
}

// NewCatalogStore wraps an already loaded list
func NewCatalogStore(catalogFile string, songs []types.Song) CatalogStore {
	if songs == nil {
		songs = []types.Song{}
	}
	return &catalogStore{songs: songs, path: catalogFile}
}

// OpenCatalog loads the catalog file, or builds it from musicDir when the
// file does not exist yet. A failed build is logged and leaves the store
// empty; the caller keeps serving. A catalog file that exists but cannot be
// read is returned as an error.
func OpenCatalog(catalogFile, musicDir string, extractor MetadataExtractor) (CatalogStore, error) {
	if _, err := os.Stat(catalogFile); err == nil {
		songs, err := LoadCatalog(catalogFile)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded",
			logger.String("file", catalogFile),
			logger.Int("songs", len(songs)))
		return NewCatalogStore(catalogFile, songs), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat catalog file: %w", err)
	}

	songs, err := BuildCatalog(musicDir, extractor, nil)
	if err != nil {
		logger.Error("error initializing songs",
			logger.String("music_dir", musicDir),
			logger.ErrorField(err))
		return NewCatalogStore(catalogFile, nil), nil
	}

	if err := SaveCatalog(catalogFile, songs); err != nil {
		logger.Error("failed to persist new catalog",
			logger.String("file", catalogFile),
			logger.ErrorField(err))
	}

	logger.Info("catalog built",
		logger.String("music_dir", musicDir),
		logger.String("file", catalogFile),
		logger.Int("songs", len(songs)))
	return NewCatalogStore(catalogFile, songs), nil
}

// BuildCatalog derives one song per entry of musicDir, in listing order.
// Entries are not filtered by extension. Any extraction failure aborts the
// whole build with a *BuildError.
func BuildCatalog(musicDir string, extractor MetadataExtractor, progress BuildProgress) ([]types.Song, error) {
	entries, err := os.ReadDir(musicDir)
	if err != nil {
		return nil, &BuildError{Path: musicDir, Err: err}
	}

	songs := make([]types.Song, 0, len(entries))
	for index, entry := range entries {
		filePath := filepath.Join(musicDir, entry.Name())

		metadata, err := extractor.ExtractAudioMetadata(filePath)
		if err != nil {
			return nil, &BuildError{Path: filePath, Err: err}
		}

		songs = append(songs, newSong(index+1, entry.Name(), metadata))

		if progress != nil {
			progress(index+1, len(entries))
		}
	}

	return songs, nil
}

func newSong(id int, fileName string, metadata *types.AudioMetadata) types.Song {
	song := types.Song{
		ID:     id,
		Title:  strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Artist: types.UnknownArtist,
	}

	if metadata == nil {
		return song
	}
	if metadata.Artist != "" {
		song.Artist = metadata.Artist
	}
	if metadata.Duration > 0 && !math.IsInf(metadata.Duration, 0) {
		song.Duration = int(math.Floor(metadata.Duration))
	}

	return song
}

// LoadCatalog reads a persisted catalog verbatim
func LoadCatalog(catalogFile string) ([]types.Song, error) {
	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var songs []types.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", catalogFile, err)
	}

	return songs, nil
}

// SaveCatalog writes the full list as indented JSON. The data goes to a
// temporary file in the same directory which then replaces the catalog.
func SaveCatalog(catalogFile string, songs []types.Song) error {
	if songs == nil {
		songs = []types.Song{}
	}

	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(catalogFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(catalogFile)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp catalog: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp catalog: %w", err)
	}

	if err := os.Rename(tmpName, catalogFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace catalog: %w", err)
	}

	return nil
}

// All returns a copy of every song in catalog order
func (s *catalogStore) All() []types.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]types.Song, len(s.songs))
	copy(songs, s.songs)
	return songs
}

// Get returns the first song with the given id
func (s *catalogStore) Get(id int) (types.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Song{}, ErrNotFound
	}
	return s.songs[i], nil
}

// Search returns songs whose title contains query, ignoring case.
// An empty query matches every song.
func (s *catalogStore) Search(query string) []types.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	results := make([]types.Song, 0)
	for _, song := range s.songs {
		if strings.Contains(strings.ToLower(song.Title), needle) {
			results = append(results, song)
		}
	}
	return results
}

// IncrementPlayCount adds one play and rewrites the catalog file before
// returning. If the write fails the count is restored.
func (s *catalogStore) IncrementPlayCount(id int) (types.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Song{}, ErrNotFound
	}

	s.songs[i].PlayCount++
	if err := SaveCatalog(s.path, s.songs); err != nil {
		s.songs[i].PlayCount--
		return types.Song{}, fmt.Errorf("persist play count: %w", err)
	}

	return s.songs[i], nil
}

// Len returns the number of songs
func (s *catalogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

// Path returns the catalog file location
func (s *catalogStore) Path() string {
	return s.path
}

// indexOf must be called with s.mu held
func (s *catalogStore) indexOf(id int) int {
	for i := range s.songs {
		if s.songs[i].ID == id {
			return i
		}
	}
	return -1
}
