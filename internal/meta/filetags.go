package meta

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// FileTags holds the descriptive tags embedded in an audio file.
// These are read-only context for display; the library's own 0-9 tags live
// in the database.
type FileTags struct {
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	FileType    string `json:"file_type,omitempty" yaml:"file_type,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Artist      string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album       string `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty" yaml:"album_artist,omitempty"`
	Genre       string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Year        int    `json:"year,omitempty" yaml:"year,omitempty"`
	Track       int    `json:"track,omitempty" yaml:"track,omitempty"`
}

// ReadFileTags reads embedded tags (ID3v1/v2, MP4, FLAC, OGG) from path
func ReadFileTags(path string) (*FileTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	track, _ := m.Track()
	return &FileTags{
		Format:      string(m.Format()),
		FileType:    string(m.FileType()),
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		AlbumArtist: strings.TrimSpace(m.AlbumArtist()),
		Genre:       strings.TrimSpace(m.Genre()),
		Year:        m.Year(),
		Track:       track,
	}, nil
}

// DisplayTitle returns "Artist - Title", falling back to what the file
// name suggests when no title is embedded
func (t *FileTags) DisplayTitle(path string) string {
	if t == nil || t.Title == "" {
		t = TagsFromFilename(path)
	}
	if t.Artist == "" || t.Title == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
