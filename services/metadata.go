package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jukebox/logger"
	"jukebox/types"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsafePath is returned for paths that would escape the music directory
var ErrUnsafePath = errors.New("unsafe file path")

// FileService covers the filesystem side of the catalog: reading tags and
// mapping songs to audio files on disk
type FileService interface {
	ExtractAudioMetadata(filePath string) (*types.AudioMetadata, error)
	ValidateFilePath(path string) error
	ResolveStreamPath(musicDir, title string) (string, error)
}

// fileService implements the FileService interface
type fileService struct{}

// NewFileService creates a new file service
func NewFileService() FileService {
	return &fileService{}
}

// ExtractAudioMetadata reads the artist tag and, for MP3 files, the
// playback duration. Missing tags or an undecodable stream leave the
// corresponding field empty; only I/O failures are returned as errors.
func (fs *fileService) ExtractAudioMetadata(filePath string) (*types.AudioMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}

	metadata := &types.AudioMetadata{}

	meta, err := tag.ReadFrom(file)
	switch {
	case err == nil:
		metadata.Artist = strings.TrimSpace(meta.Artist())
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		logger.Debug("could not parse audio tags", logger.String("path", filePath), logger.ErrorField(err))
	}

	if strings.ToLower(filepath.Ext(filePath)) != ".mp3" {
		return metadata, nil
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", filePath, err)
	}
	duration, err := mp3Duration(file)
	if err != nil {
		logger.Debug("could not decode mp3 duration", logger.String("path", filePath), logger.ErrorField(err))
		return metadata, nil
	}
	metadata.Duration = duration

	return metadata, nil
}

// mp3Duration decodes frame headers to get the stream length in seconds.
// The decoder emits 16-bit stereo PCM, four bytes per sample.
func mp3Duration(r io.ReadSeeker) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("mp3 decode failed: %w", err)
	}

	length := decoder.Length()
	rate := decoder.SampleRate()
	if length <= 0 || rate <= 0 {
		return 0, fmt.Errorf("mp3 stream has no length")
	}

	return float64(length) / float64(4*rate), nil
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (fs *fileService) ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	if path == "." || path == ".." {
		return fmt.Errorf("%w: path traversal not allowed", ErrUnsafePath)
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: absolute paths not allowed", ErrUnsafePath)
	}
	if strings.ContainsRune(path, '/') || strings.ContainsRune(path, filepath.Separator) {
		return fmt.Errorf("%w: nested paths not allowed", ErrUnsafePath)
	}
	return nil
}

// ResolveStreamPath maps a song title to <musicDir>/<title>.mp3. The title
// is the only link a song keeps to its file, so the original extension is
// not consulted.
func (fs *fileService) ResolveStreamPath(musicDir, title string) (string, error) {
	name := title + ".mp3"
	if err := fs.ValidateFilePath(name); err != nil {
		return "", err
	}

	absMusicDir, err := filepath.Abs(musicDir)
	if err != nil {
		return "", fmt.Errorf("resolve music directory: %w", err)
	}
	fullPath := filepath.Join(absMusicDir, name)
	if !strings.HasPrefix(fullPath, absMusicDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: outside music directory", ErrUnsafePath)
	}

	return fullPath, nil
}
