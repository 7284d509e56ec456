package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	yaml "go.yaml.in/yaml/v3"
)

// Loader reads schedule documents from a filesystem.
type Loader struct {
	fs afero.Fs
}

// NewLoader returns a loader over fsys. A nil fsys means the OS filesystem.
func NewLoader(fsys afero.Fs) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Loader{fs: fsys}
}

// Load reads the whole file at path and decodes it. Either a complete Schedule
// is returned or a *LoadError; there is no partial result.
func (l *Loader) Load(path string) (*Schedule, error) {
	b, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: ErrNotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Kind: ErrIO, Path: path, Err: err}
	}
	s, err := Decode(path, b)
	if err != nil {
		return nil, &LoadError{Kind: ErrMalformed, Path: path, Err: err}
	}
	return s, nil
}

// Decode parses a schedule document. The format is picked by extension:
// .yaml/.yml are YAML, everything else is JSON.
func Decode(path string, data []byte) (*Schedule, error) {
	var w wireSchedule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&w); err != nil {
			return nil, err
		}
		// reject trailing tokens (e.g. concatenated JSON)
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			if err == nil {
				return nil, errors.New("trailing data after schedule document")
			}
			return nil, err
		}
	}
	return w.build()
}

// Wire types use pointers so missing required keys can be told apart from
// empty values.
type wireSchedule struct {
	Days *[]wireDay `json:"days" yaml:"days"`
}

type wireDay struct {
	DayOfWeek *string     `json:"day_of_week" yaml:"day_of_week"`
	Tasks     *[]wireTask `json:"tasks" yaml:"tasks"`
}

type wireTask struct {
	Title     *string `json:"title" yaml:"title"`
	Details   *string `json:"details" yaml:"details"`
	StartTime *string `json:"start_time" yaml:"start_time"`
	EndTime   *string `json:"end_time" yaml:"end_time"`
}

func (w wireSchedule) build() (*Schedule, error) {
	if w.Days == nil {
		return nil, errors.New(`missing field "days"`)
	}
	out := &Schedule{Days: make([]Day, 0, len(*w.Days))}
	for i, wd := range *w.Days {
		if wd.DayOfWeek == nil {
			return nil, fmt.Errorf(`days[%d]: missing field "day_of_week"`, i)
		}
		if wd.Tasks == nil {
			return nil, fmt.Errorf(`days[%d]: missing field "tasks"`, i)
		}
		day := Day{DayOfWeek: *wd.DayOfWeek, Tasks: make([]Task, 0, len(*wd.Tasks))}
		for j, wt := range *wd.Tasks {
			t, err := wt.build()
			if err != nil {
				return nil, fmt.Errorf("days[%d].tasks[%d]: %w", i, j, err)
			}
			day.Tasks = append(day.Tasks, t)
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

func (w wireTask) build() (Task, error) {
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"title", w.Title},
		{"details", w.Details},
		{"start_time", w.StartTime},
		{"end_time", w.EndTime},
	} {
		if f.v == nil {
			return Task{}, fmt.Errorf("missing field %q", f.name)
		}
	}
	return Task{
		Title:     *w.Title,
		Details:   *w.Details,
		StartTime: *w.StartTime,
		EndTime:   *w.EndTime,
	}, nil
}
