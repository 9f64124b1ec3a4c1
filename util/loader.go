// Package util - helpers for locating input images on disk.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile is an image found on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the number parsed from a "frame-<n>" or "<n>" file name, or -1.
	Frame int
}

// imageExtensions lists the extensions the decoders accept.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// IsImageFile reports whether name has a decodable image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// frameNumber parses the frame index out of names like "frame-0012.png".
func frameNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.TrimPrefix(base, "frame-")
	n, err := strconv.Atoi(base)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// LoadDirectoryImageFiles lists the image files in a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - The image files, numbered frames first in frame order, then the rest by name.
// - error if the directory cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, ImageFile{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0 && a.Frame != b.Frame:
			return a.Frame < b.Frame
		case a.Frame >= 0 && b.Frame < 0:
			return true
		case a.Frame < 0 && b.Frame >= 0:
			return false
		default:
			return a.Path < b.Path
		}
	})

	return files, nil
}

// ExpandPaths replaces every directory in paths with the image files it
// contains, keeping argument order. Plain file paths pass through unchecked.
//
// @example
// paths, err := ExpandPaths([]string{"frames/", "extra.jpg"})
func ExpandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}

		files, err := LoadDirectoryImageFiles(p)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.Errorf("no images in directory %s", p)
		}
		for _, f := range files {
			out = append(out, f.Path)
		}
	}
	return out, nil
}
