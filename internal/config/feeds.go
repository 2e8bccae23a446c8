package config

import (
	"fmt"
	"net/url"
	"os"

	"blogfeed/internal/model"

	"gopkg.in/yaml.v3"
)

// feedsFile is the shape of a standalone feeds YAML file.
type feedsFile struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

// LoadFeedsFile reads feed descriptors from a standalone YAML file,
// overriding the feeds section of the main config.
func LoadFeedsFile(path string) ([]model.FeedDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading feeds file: %w", err)
	}
	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing feeds file %s: %w", path, err)
	}
	return descriptors(f.Feeds)
}

func descriptors(feeds []FeedConfig) ([]model.FeedDescriptor, error) {
	out := make([]model.FeedDescriptor, 0, len(feeds))
	for i, fc := range feeds {
		if fc.URL == "" {
			return nil, fmt.Errorf("config: feed %d: url is required", i)
		}
		u, err := url.Parse(fc.URL)
		if err != nil {
			return nil, fmt.Errorf("config: feed %q: invalid url: %w", fc.DisplayName, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("config: feed %q: url scheme must be http or https, got %q", fc.DisplayName, u.Scheme)
		}
		if fc.DisplayName == "" {
			return nil, fmt.Errorf("config: feed %d: display_name is required", i)
		}
		cat, err := model.ParseCategory(fc.Category)
		if err != nil {
			return nil, fmt.Errorf("config: feed %q: %w", fc.DisplayName, err)
		}
		out = append(out, model.FeedDescriptor{
			URL:         fc.URL,
			DisplayName: fc.DisplayName,
			Category:    cat,
			Priority:    fc.Priority,
		})
	}
	return out, nil
}
