//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ivelum/cub-client/pkg/cub"
	"github.com/ivelum/cub-client/pkg/cubclient"
)

// ClientIntegrationTestSuite exercises the library against a live service.
type ClientIntegrationTestSuite struct {
	suite.Suite

	config *TestConfig
	client cub.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *ClientIntegrationTestSuite) SetupSuite() {
	s.config = LoadTestConfig()
	s.config.SkipIfMissingAPIKey(s.T())

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)

	client, err := cubclient.New(s.ctx, &cub.Config{
		APIURL: s.config.APIURL,
		APIKey: s.config.APIKey,
		Debug:  s.config.Verbose,
	})
	s.Require().NoError(err)

	s.client = client
}

func (s *ClientIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.NoError(s.client.Close())
	}

	if s.cancel != nil {
		s.cancel()
	}
}

func (s *ClientIntegrationTestSuite) TestListAndReloadCountries() {
	countries, err := s.client.Countries().List(s.ctx, cub.P("count", 2))
	s.Require().NoError(err)
	s.Require().NotEmpty(countries)

	country := countries[0]
	s.Equal(cub.KindCountry, country.Kind())

	s.Require().NoError(s.client.Countries().Reload(s.ctx, country, nil))
	s.NotEmpty(country.ID())
}

func (s *ClientIntegrationTestSuite) TestNotFound() {
	_, err := s.client.Organizations().Get(s.ctx, "org_does_not_exist", nil)
	s.Require().Error(err)
	s.True(errors.Is(err, cub.ErrNotFound) || errors.Is(err, cub.ErrForbidden), "unexpected error: %v", err)
}

func (s *ClientIntegrationTestSuite) TestRawRequestDecodesObjects() {
	resp, err := s.client.Request(s.ctx, "GET", "/countries", cub.P("count", 1))
	s.Require().NoError(err)
	s.True(resp.OK())

	countries, ok := cub.Slice[*cub.Country](resp.Data)
	s.True(ok)
	s.Len(countries, 1)
}

func (s *ClientIntegrationTestSuite) TestSessionLifecycle() {
	s.config.SkipIfMissingUser(s.T())

	user, err := s.client.Users().Login(s.ctx, s.config.Username, s.config.Password)
	s.Require().NoError(err)

	current, err := s.client.Users().Current(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(user.ID(), current.ID())

	s.client.Users().Logout(s.ctx)

	_, err = s.client.Users().Current(s.ctx, "")
	s.ErrorIs(err, cub.ErrNotLoggedIn)
}

func TestClientIntegration(t *testing.T) {
	suite.Run(t, new(ClientIntegrationTestSuite))
}
