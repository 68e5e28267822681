package words

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/guess"
	"github.com/mcoot/wordduel/internal/storage"
)

// DefaultWords is the secret word list used when nothing else is loaded
var DefaultWords = []string{"APPLE", "BEACH", "CHAIR", "DANCE", "EAGLE"}

// Service holds the list secret words are drawn from
type Service struct {
	storage storage.Storage
	random  random.Random

	mu    sync.RWMutex
	words []string
}

// New creates a word Service preloaded with DefaultWords
func New(storage storage.Storage, random random.Random) *Service {
	s := &Service{
		storage: storage,
		random:  random,
	}
	_ = s.loadWords(DefaultWords)
	return s
}

// LoadFromStorage replaces the list with the words saved in storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	words, err := s.storage.GetDictionaryWords(ctx)
	if err != nil {
		return err
	}
	return s.loadWords(words)
}

// LoadFromFile replaces the list with the words in a file (one word per line)
// and saves them to storage
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := s.loadWords(words); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return s.storage.SaveDictionaryWords(ctx, s.Words())
}

// LoadWords directly replaces the list (useful for testing)
func (s *Service) LoadWords(words []string) error {
	return s.loadWords(words)
}

// loadWords keeps only playable words, upper-cased and de-duplicated.
// The current list is untouched if nothing playable remains.
func (s *Service) loadWords(words []string) error {
	seen := make(map[string]struct{}, len(words))
	var playable []string
	for _, w := range words {
		normalized, err := guess.Normalize(w)
		if err != nil {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		playable = append(playable, normalized)
	}
	if len(playable) == 0 {
		return model.ErrWordsNotLoaded
	}
	sort.Strings(playable)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = playable
	return nil
}

// PickSecret draws a word uniformly at random
func (s *Service) PickSecret() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.words) == 0 {
		return "", model.ErrWordsNotLoaded
	}
	return s.words[s.random.Intn(len(s.words))], nil
}

// Words returns a copy of the current list
func (s *Service) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.words...)
}

// Count returns the number of words in the list
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// ServiceInterface is what the room store needs from a word source
type ServiceInterface interface {
	PickSecret() (string, error)
}

var _ ServiceInterface = (*Service)(nil)
