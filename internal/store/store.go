package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/tree"

	"github.com/spf13/afero"
)

// Document is the persisted shape: metadata plus the ordered root tasks.
type Document struct {
	Meta  model.Metadata `json:"meta"`
	Datas []model.Task   `json:"datas"`
}

// wireDocument makes both top-level fields mandatory on load.
type wireDocument struct {
	Meta  *model.Metadata `json:"meta"`
	Datas *[]model.Task   `json:"datas"`
}

// Store reads and writes one document. Every save rewrites the whole file.
type Store struct {
	Path string
	Fs   afero.Fs
}

func New(path string) Store {
	return Store{Path: path, Fs: afero.NewOsFs()}
}

func (s Store) fs() afero.Fs {
	if s.Fs == nil {
		return afero.NewOsFs()
	}
	return s.Fs
}

func (s Store) Exists() (bool, error) {
	return afero.Exists(s.fs(), s.Path)
}

func (s Store) Load() (*Document, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return nil, errors.New("missing storage path")
	}
	b, err := afero.ReadFile(s.fs(), path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, StorageMissingError{Path: path}
		}
		return nil, err
	}

	var w wireDocument
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, CorruptStorageError{Path: path, Err: err}
	}
	if w.Meta == nil {
		return nil, CorruptStorageError{Path: path, Err: errors.New(`missing "meta"`)}
	}
	if w.Datas == nil {
		return nil, CorruptStorageError{Path: path, Err: errors.New(`missing "datas"`)}
	}
	if err := w.Meta.Validate(); err != nil {
		return nil, CorruptStorageError{Path: path, Err: err}
	}
	if err := tree.New(*w.Datas).CheckUniqueIDs(); err != nil {
		return nil, CorruptStorageError{Path: path, Err: err}
	}

	doc := &Document{Meta: *w.Meta, Datas: *w.Datas}
	if doc.Datas == nil {
		doc.Datas = []model.Task{}
	}
	return doc, nil
}

func (s Store) Save(doc *Document) error {
	if doc == nil {
		return errors.New("save: nil document")
	}
	out := *doc
	if out.Datas == nil {
		out.Datas = []model.Task{}
	}
	if out.Meta.Groups == nil {
		out.Meta.Groups = []model.Group{}
	}
	if out.Meta.Templates == nil {
		out.Meta.Templates = []model.Template{}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return writeFileAtomic(s.fs(), s.Path, b, 0o644)
}

// Init writes a fresh document with the given metadata. It refuses to overwrite.
func (s Store) Init(meta model.Metadata) (*Document, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	exists, err := s.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, AlreadyExistsError{Path: s.Path}
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := s.fs().MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	doc := &Document{Meta: meta, Datas: []model.Task{}}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadOrInit loads the document, creating it with meta when it does not exist yet.
func (s Store) LoadOrInit(meta model.Metadata) (*Document, bool, error) {
	doc, err := s.Load()
	if err == nil {
		return doc, false, nil
	}
	var missing StorageMissingError
	if !errors.As(err, &missing) {
		return nil, false, err
	}
	doc, err = s.Init(meta)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}
