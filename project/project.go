package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bloodmagesoftware/skel/geom"
)

const ConfigFileName = "skel.yaml"

// Config represents the project configuration from skel.yaml.
type Config struct {
	Name string `yaml:"name"`
	// Shapes is the directory holding the shape files, relative to the
	// project root.
	Shapes  string    `yaml:"shapes,omitempty"`
	Epsilon float64   `yaml:"epsilon,omitempty"`
	Render  Render    `yaml:"render,omitempty"`
	Offsets []float64 `yaml:"offsets,omitempty"`
}

type Render struct {
	Width   int    `yaml:"width,omitempty"`
	Height  int    `yaml:"height,omitempty"`
	Padding int    `yaml:"padding,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// Default returns the configuration skel init writes.
func Default(name string) *Config {
	c := &Config{Name: name, Offsets: []float64{0.5, 1}}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Shapes == "" {
		c.Shapes = "shapes"
	}
	if c.Epsilon == 0 {
		c.Epsilon = geom.DefaultEpsilon
	}
	if c.Render.Width == 0 {
		c.Render.Width = 1024
	}
	if c.Render.Height == 0 {
		c.Render.Height = 1024
	}
	if c.Render.Padding == 0 {
		c.Render.Padding = 32
	}
	if c.Render.Format == "" {
		c.Render.Format = "qoi"
	}
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("'name' field is required in %s", ConfigFileName)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("'epsilon' must not be negative in %s", ConfigFileName)
	}
	if c.Render.Format != "qoi" && c.Render.Format != "png" {
		return fmt.Errorf("'render.format' must be qoi or png in %s, got %q", ConfigFileName, c.Render.Format)
	}
	if c.Render.Width < 0 || c.Render.Height < 0 || c.Render.Padding < 0 {
		return fmt.Errorf("'render' sizes must not be negative in %s", ConfigFileName)
	}
	if 2*c.Render.Padding >= min(c.Render.Width, c.Render.Height) {
		return fmt.Errorf("'render.padding' leaves no room to draw in %s", ConfigFileName)
	}
	for _, d := range c.Offsets {
		if d < 0 {
			return fmt.Errorf("'offsets' must not be negative in %s, got %g", ConfigFileName, d)
		}
	}
	return nil
}

// Kernel returns the numeric kernel configured by epsilon.
func (c *Config) Kernel() geom.FloatKernel {
	return geom.NewFloatKernel(c.Epsilon)
}

// ShapesDir returns the absolute shape directory for the project at root.
func (c *Config) ShapesDir(root string) string {
	if filepath.IsAbs(c.Shapes) {
		return c.Shapes
	}
	return filepath.Join(root, c.Shapes)
}

// FindProjectRoot walks up from the current working directory looking for skel.yaml.
// Returns the directory containing skel.yaml, or an error if not found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return findProjectRoot(cwd)
}

func findProjectRoot(start string) (string, error) {
	dir := start
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding skel.yaml
			return "", fmt.Errorf("%s not found in any parent directory of %s", ConfigFileName, start)
		}
		dir = parent
	}
}

// LoadConfig loads and parses the skel.yaml file from the given project root.
func LoadConfig(projectRoot string) (*Config, error) {
	configPath := filepath.Join(projectRoot, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Save writes the configuration to skel.yaml in projectRoot.
func (c *Config) Save(projectRoot string) error {
	f, err := os.Create(filepath.Join(projectRoot, ConfigFileName))
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	defer encoder.Close()
	encoder.SetIndent(4)

	return encoder.Encode(c)
}
