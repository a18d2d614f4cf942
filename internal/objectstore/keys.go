package objectstore

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object key layout:
//
//	book/{brochure}/{filename}                     brochure page images
//	{brochure}/{images|videos|audio|files}/{f}_{id}{.ext}  categorized uploads
//	audio/{brochure}/{prefix}_{id}.mp3              generated narration
const (
	CategoryImages = "images"
	CategoryVideos = "videos"
	CategoryAudio  = "audio"
	CategoryFiles  = "files"
)

func BrochureImageKey(brochure, filename string) string {
	return "book/" + brochure + "/" + cleanFilename(filename)
}

func CategorizedKey(brochure, category, filename string) string {
	base, ext := splitExt(cleanFilename(filename))
	return brochure + "/" + category + "/" + base + "_" + ShortID() + ext
}

func AudioKey(brochure, prefix string) string {
	return AudioPrefix(brochure) + prefix + "_" + ShortID() + ".mp3"
}

// AudioPrefix ends with a slash so "foo" never matches "foo-1".
func AudioPrefix(brochure string) string {
	return "audio/" + brochure + "/"
}

// ShortID is the first 8 hex chars of a random UUID.
func ShortID() string {
	return uuid.NewString()[:8]
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToLower(ext)
}

var pageImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// IsPageImage reports whether contentType is one of the image formats a
// flipbook page or overlay may use.
func IsPageImage(contentType string) bool {
	ct, _, _ := strings.Cut(contentType, ";")
	return pageImageTypes[strings.ToLower(strings.TrimSpace(ct))]
}

// CategoryFor maps a content type onto the folder a free-form upload goes to.
func CategoryFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImages
	case strings.HasPrefix(ct, "video/"):
		return CategoryVideos
	case strings.HasPrefix(ct, "audio/"):
		return CategoryAudio
	default:
		return CategoryFiles
	}
}
