package core

import (
	"sync"
)

// State holds the application state shared by the views
type State struct {
	mu sync.RWMutex

	// Current view state
	Feeds       []string
	CurrentFeed string

	// UI state
	ShowHelp bool
	Debug    bool
	Markdown bool
	Status   string

	config *Config
}

// NewState creates a new application state for the given feeds
func NewState(config *Config, feeds []string) *State {
	s := &State{
		Feeds:  append([]string(nil), feeds...),
		Debug:  config.Debug,
		config: config,
	}
	if config.Markdown != nil {
		s.Markdown = *config.Markdown
	}

	if len(feeds) > 0 {
		s.CurrentFeed = feeds[0]
	}
	if config.InitialFeed != "" {
		s.SetFeed(config.InitialFeed)
	}
	return s
}

// Config returns the runtime configuration the state was created with
func (s *State) Config() *Config {
	return s.config
}

// SetFeed switches to the named feed. Unknown names are ignored.
func (s *State) SetFeed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.Feeds {
		if f == name {
			s.CurrentFeed = name
			return true
		}
	}
	return false
}

// GetCurrentFeed returns the name of the feed on screen
func (s *State) GetCurrentFeed() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentFeed
}

// NextFeed cycles to the next feed and returns its name
func (s *State) NextFeed() string {
	return s.cycleFeed(1)
}

// PrevFeed cycles to the previous feed and returns its name
func (s *State) PrevFeed() string {
	return s.cycleFeed(-1)
}

func (s *State) cycleFeed(step int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.Feeds)
	if n == 0 {
		return s.CurrentFeed
	}
	for i, f := range s.Feeds {
		if f == s.CurrentFeed {
			s.CurrentFeed = s.Feeds[(i+step+n)%n]
			return s.CurrentFeed
		}
	}
	s.CurrentFeed = s.Feeds[0]
	return s.CurrentFeed
}

// SetFeeds replaces the feed list, keeping the current feed when it survives
func (s *State) SetFeeds(feeds []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Feeds = append([]string(nil), feeds...)
	for _, f := range s.Feeds {
		if f == s.CurrentFeed {
			return
		}
	}
	s.CurrentFeed = ""
	if len(s.Feeds) > 0 {
		s.CurrentFeed = s.Feeds[0]
	}
}

// SetStatus sets the transient status line message
func (s *State) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = msg
}

// GetStatus returns the status line message
func (s *State) GetStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}
