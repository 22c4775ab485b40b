package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CacheSuite struct {
	suite.Suite
	cache *Cache
	ctx   context.Context
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.cache = New()
	s.ctx = context.Background()
}

func (s *CacheSuite) TestReadMissing() {
	_, ok, err := s.cache.Read(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *CacheSuite) TestWriteThenRead() {
	s.Require().NoError(s.cache.Write(s.ctx, "k", "v1"))
	s.Require().NoError(s.cache.Write(s.ctx, "k", "v2"))

	value, ok, err := s.cache.Read(s.ctx, "k")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("v2", value)
}

func (s *CacheSuite) TestClear() {
	_ = s.cache.Write(s.ctx, "k", "v")
	s.Require().NoError(s.cache.Clear(s.ctx, "k"))
	s.Require().NoError(s.cache.Clear(s.ctx, "k"))

	_, ok, _ := s.cache.Read(s.ctx, "k")
	s.False(ok)
}
