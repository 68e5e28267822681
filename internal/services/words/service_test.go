package words

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.random)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestDefaultsLoaded() {
	s.Equal(len(DefaultWords), s.service.Count())
	s.Equal(DefaultWords, s.service.Words())
}

func (s *ServiceSuite) TestPickSecretUsesRandomIndex() {
	s.random.QueueIntn(2)

	word, err := s.service.PickSecret()
	s.Require().NoError(err)
	s.Equal("CHAIR", word)
}

func (s *ServiceSuite) TestLoadWordsFiltersAndNormalizes() {
	err := s.service.LoadWords([]string{"crane", "Slate", "toolong", "abc", "cr4ne", "CRANE"})
	s.Require().NoError(err)

	s.Equal([]string{"CRANE", "SLATE"}, s.service.Words())
}

func (s *ServiceSuite) TestLoadWordsRejectsEmptyList() {
	err := s.service.LoadWords([]string{"no", "toolong", "fit"})
	s.ErrorIs(err, model.ErrWordsNotLoaded)

	// Previous list is kept
	s.Equal(len(DefaultWords), s.service.Count())
}

func (s *ServiceSuite) TestLoadFromFileSavesToStorage() {
	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("# comment\ncrane\n\nslate\nnope\n"), 0o644))

	s.Require().NoError(s.service.LoadFromFile(s.ctx, path))
	s.Equal([]string{"CRANE", "SLATE"}, s.service.Words())

	saved, err := s.storage.GetDictionaryWords(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"CRANE", "SLATE"}, saved)
}

func (s *ServiceSuite) TestLoadFromFileMissing() {
	err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "missing.txt"))
	s.Error(err)
}

func (s *ServiceSuite) TestLoadFromStorage() {
	s.Require().NoError(s.storage.SaveDictionaryWords(s.ctx, []string{"ghost", "pride"}))

	s.Require().NoError(s.service.LoadFromStorage(s.ctx))
	s.Equal([]string{"GHOST", "PRIDE"}, s.service.Words())
}
