package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/scheduler"
)

// Seed declares subscriber groups and scheduled tasks.
//
//	[[groups]]
//	id = "-100123"
//	name = "Lenina residents"
//	addresses = ["Lenina 10", "Mira"]
//
//	[[tasks]]
//	id = 1
//	name = "outages every 15 minutes"
//	kinds = ["outages_check"]
//	interval = { type = "minutely", value = 15 }
type Seed struct {
	Groups []GroupSeed `toml:"groups"`
	Tasks  []TaskSeed  `toml:"tasks"`
}

// GroupSeed is one [[groups]] entry.
type GroupSeed struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	Addresses []string `toml:"addresses"`
	Disabled  bool     `toml:"disabled"`
}

// TaskSeed is one [[tasks]] entry.
type TaskSeed struct {
	ID           int64           `toml:"id"`
	Name         string          `toml:"name"`
	Kinds        []string        `toml:"kinds"`
	Interval     domain.Interval `toml:"interval"`
	TargetGroups []string        `toml:"target_groups"`
	Disabled     bool            `toml:"disabled"`
}

// KindValidator rejects unknown task kinds.
type KindValidator interface {
	Validate(kinds []string) error
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed TOML. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	var errs []error
	groups := make(map[string]bool, len(s.Groups))
	for i, g := range s.Groups {
		switch {
		case g.ID == "":
			errs = append(errs, fmt.Errorf("groups[%d]: id is required", i))
		case groups[g.ID]:
			errs = append(errs, fmt.Errorf("groups[%d]: duplicate id %q", i, g.ID))
		}
		groups[g.ID] = true
	}

	tasks := make(map[int64]bool, len(s.Tasks))
	for i, t := range s.Tasks {
		switch {
		case t.ID <= 0:
			errs = append(errs, fmt.Errorf("tasks[%d]: id must be positive", i))
		case tasks[t.ID]:
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %d", i, t.ID))
		}
		tasks[t.ID] = true
		if len(t.Kinds) == 0 {
			errs = append(errs, fmt.Errorf("tasks[%d]: at least one kind is required", i))
		}
		if err := scheduler.ValidateInterval(t.Interval); err != nil {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Apply upserts every group and task into w. Kinds are checked against
// kinds first so a typo fails the whole seed before anything is written.
func (s *Seed) Apply(ctx context.Context, w domain.SeedWriter, kinds KindValidator) error {
	if kinds != nil {
		for i, t := range s.Tasks {
			if err := kinds.Validate(t.Kinds); err != nil {
				return fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
	}

	for _, g := range s.Groups {
		err := w.UpsertGroup(ctx, domain.Group{
			GroupID:   g.ID,
			Name:      g.Name,
			Addresses: g.Addresses,
			IsActive:  !g.Disabled,
		})
		if err != nil {
			return fmt.Errorf("upsert group %s: %w", g.ID, err)
		}
	}
	for _, t := range s.Tasks {
		err := w.UpsertTask(ctx, domain.Task{
			ID:           t.ID,
			Name:         t.Name,
			Kinds:        t.Kinds,
			Interval:     t.Interval,
			TargetGroups: t.TargetGroups,
			IsActive:     !t.Disabled,
		})
		if err != nil {
			return fmt.Errorf("upsert task %d: %w", t.ID, err)
		}
	}
	return nil
}
