// Package preset holds named action groups defined in YAML and plays them
// into the extended-mode angles.
//
//	groups:
//	  - name: wave
//	    poses:
//	      - angles: [90, 60, 120, 90, 90, 30]
//	        hold_ms: 300
package preset

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gwillem/armctl/pkg/robot"
)

// DefaultHold is how long a pose is held when hold_ms is unset.
const DefaultHold = 300 * time.Millisecond

// Pose is one step of a preset group.
type Pose struct {
	Angles []int `yaml:"angles"`
	HoldMs int   `yaml:"hold_ms,omitempty"`
}

// Hold returns how long the pose is held.
func (p Pose) Hold() time.Duration {
	if p.HoldMs <= 0 {
		return DefaultHold
	}
	return time.Duration(p.HoldMs) * time.Millisecond
}

// Target returns the pose as channel angles.
func (p Pose) Target() robot.Angles {
	var a robot.Angles
	copy(a[:], p.Angles)
	return a
}

// Group is a named sequence of poses.
type Group struct {
	Name  string `yaml:"name"`
	Poses []Pose `yaml:"poses"`
}

// Library is a set of preset groups.
type Library struct {
	Groups []Group `yaml:"groups"`
}

// Load reads a library from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML library.
func Parse(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Validate checks names and pose sizes.
func (l *Library) Validate() error {
	seen := make(map[string]bool, len(l.Groups))
	for _, g := range l.Groups {
		if g.Name == "" {
			return errors.New("preset group without a name")
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate preset group %q", g.Name)
		}
		seen[g.Name] = true
		if len(g.Poses) == 0 {
			return fmt.Errorf("preset group %q has no poses", g.Name)
		}
		for i, p := range g.Poses {
			if len(p.Angles) != robot.NumChannels {
				return fmt.Errorf("preset group %q pose %d: want %d angles, got %d", g.Name, i, robot.NumChannels, len(p.Angles))
			}
		}
	}
	return nil
}

// Get looks a group up by name.
func (l *Library) Get(name string) (Group, bool) {
	for _, g := range l.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Names lists the group names in file order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Groups))
	for _, g := range l.Groups {
		names = append(names, g.Name)
	}
	return names
}

// Put adds g, replacing a group with the same name.
func (l *Library) Put(g Group) {
	for i := range l.Groups {
		if l.Groups[i].Name == g.Name {
			l.Groups[i] = g
			return
		}
	}
	l.Groups = append(l.Groups, g)
}

// Save writes the library as YAML.
func (l *Library) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GroupFrom builds a group from recorded poses, each held for hold.
func GroupFrom(name string, poses []robot.Angles, hold time.Duration) Group {
	g := Group{Name: name, Poses: make([]Pose, 0, len(poses))}
	for _, a := range poses {
		g.Poses = append(g.Poses, Pose{
			Angles: append([]int(nil), a[:]...),
			HoldMs: int(hold / time.Millisecond),
		})
	}
	return g
}
