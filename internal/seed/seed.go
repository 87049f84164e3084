// Package seed reads operator-authored cross definitions. Crosses,
// missions, prompts and teams are written out of band as YAML and
// imported into the store at startup.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eIGato/hightech-cross/internal/cross"
)

type File struct {
	Teams   []Team  `yaml:"teams"`
	Crosses []Cross `yaml:"crosses"`
}

type Team struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type Cross struct {
	Name     string    `yaml:"name"`
	BeginsAt time.Time `yaml:"begins_at"`
	EndsAt   time.Time `yaml:"ends_at"`
	// Teams lists participating team names in leaderboard order.
	Teams    []string  `yaml:"teams"`
	Missions []Mission `yaml:"missions"`
}

type Mission struct {
	SN          int              `yaml:"sn"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Lat         cross.Coordinate `yaml:"lat"`
	Lon         cross.Coordinate `yaml:"lon"`
	Answer      string           `yaml:"answer"`
	Prompts     []Prompt         `yaml:"prompts"`
}

type Prompt struct {
	SN   int    `yaml:"sn"`
	Text string `yaml:"text"`
}

// LoadFile reads and validates the definitions at path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes definitions from r, rejecting unknown keys, and validates
// them.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the references and uniqueness rules the database
// enforces, so that a bad file fails before anything is written.
func (f *File) Validate() error {
	var errs []error

	teams := make(map[string]bool, len(f.Teams))
	for i, t := range f.Teams {
		// Login trims the submitted name, so a stored name must already be
		// trimmed to be reachable.
		switch {
		case strings.TrimSpace(t.Name) == "":
			errs = append(errs, fmt.Errorf("teams[%d]: name is required", i))
		case strings.TrimSpace(t.Name) != t.Name:
			errs = append(errs, fmt.Errorf("teams[%d]: name %q has surrounding whitespace", i, t.Name))
		case teams[t.Name]:
			errs = append(errs, fmt.Errorf("teams[%d]: duplicate team %q", i, t.Name))
		}
		if t.Password == "" {
			errs = append(errs, fmt.Errorf("teams[%d]: password is required", i))
		}
		teams[t.Name] = true
	}

	for i, c := range f.Crosses {
		where := fmt.Sprintf("crosses[%d] %q", i, c.Name)
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("crosses[%d]: name is required", i))
		}
		if err := (cross.Tournament{BeginsAt: c.BeginsAt, EndsAt: c.EndsAt}).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}

		members := make(map[string]bool, len(c.Teams))
		for _, name := range c.Teams {
			if !teams[name] {
				errs = append(errs, fmt.Errorf("%s: unknown team %q", where, name))
			}
			if members[name] {
				errs = append(errs, fmt.Errorf("%s: team %q listed twice", where, name))
			}
			members[name] = true
		}

		missions := make(map[int]bool, len(c.Missions))
		for _, m := range c.Missions {
			if missions[m.SN] {
				errs = append(errs, fmt.Errorf("%s: duplicate mission sn %d", where, m.SN))
			}
			missions[m.SN] = true
			if m.Answer == "" {
				errs = append(errs, fmt.Errorf("%s: mission %d has no answer", where, m.SN))
			}
			prompts := make(map[int]bool, len(m.Prompts))
			for _, p := range m.Prompts {
				if prompts[p.SN] {
					errs = append(errs, fmt.Errorf("%s: mission %d: duplicate prompt sn %d", where, m.SN, p.SN))
				}
				prompts[p.SN] = true
			}
		}
	}

	return errors.Join(errs...)
}

// Demo returns a small cross that starts at now and runs for a day, with
// two teams sharing the password "demo".
func Demo(now time.Time) *File {
	begins := now.UTC().Truncate(time.Minute)
	return &File{
		Teams: []Team{
			{Name: "red", Password: "demo"},
			{Name: "blue", Password: "demo"},
		},
		Crosses: []Cross{{
			Name:     "Demo cross",
			BeginsAt: begins,
			EndsAt:   begins.Add(24 * time.Hour),
			Teams:    []string{"red", "blue"},
			Missions: []Mission{
				{
					SN:          1,
					Name:        "Bronze Horseman",
					Description: "Who ordered the monument to be built?",
					Lat:         5993635,
					Lon:         3030217,
					Answer:      "Catherine",
					Prompts: []Prompt{
						{SN: 1, Text: "Read the inscription on the pedestal."},
						{SN: 2, Text: "She was an empress."},
					},
				},
				{
					SN:          2,
					Name:        "Griboyedov bridge",
					Description: "How many lions hold the bridge cables?",
					Lat:         5993929,
					Lon:         3031987,
					Answer:      "4",
					Prompts: []Prompt{
						{SN: 1, Text: "Count the paws, then divide."},
					},
				},
			},
		}},
	}
}
