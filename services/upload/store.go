package uploadsvc

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
)

const (
	MaxFileSize = 10 << 20 // 10 MB
	URLPrefix   = "/uploads/"
)

// allowed maps the accepted extensions to the content types their bytes must sniff as.
// An empty list accepts any content.
var allowed = map[string][]string{
	".pdf":  {"application/pdf"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".doc":  nil,
	".docx": nil,
	".zip":  nil,
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

type Store struct {
	dir string
	now func() time.Time
}

var _ core.FileStore = (*Store)(nil)

func NewStore(conf *core.Config) *Store {
	return &Store{dir: conf.UploadDir, now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

// sanitize keeps the base name of the file, with anything but letters, digits, dots, dashes and underscores replaced.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

func (s *Store) Save(field string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", core.NewFieldValidationError(field, "file is too large (max 10 MB)")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	types, ok := allowed[ext]
	if !ok {
		return "", core.NewFieldValidationError(field, "file type not allowed (pdf, jpg, jpeg, png, doc, docx, zip)")
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	if len(types) > 0 {
		mtype, err := mimetype.DetectReader(src)
		if err != nil {
			return "", errors.Wrap(err, "detecting upload type")
		}
		if !matches(mtype, types) {
			return "", core.NewFieldValidationError(field, "file content does not match its extension")
		}
		if _, err = src.Seek(0, io.SeekStart); err != nil {
			return "", errors.Wrap(err, "rewinding upload")
		}
	}

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}
	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + sanitize(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	// the header size comes from the client; the copy enforces the limit on the actual bytes
	n, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	if n > MaxFileSize {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", core.NewFieldValidationError(field, "file is too large (max 10 MB)")
	}
	return URLPrefix + name, nil
}

func (s *Store) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return errors.Errorf("not an upload url: %q", url)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(strings.TrimPrefix(url, URLPrefix))))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing upload file")
	}
	return nil
}

func matches(mtype *mimetype.MIME, types []string) bool {
	for m := mtype; m != nil; m = m.Parent() {
		for _, t := range types {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}
