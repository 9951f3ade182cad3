package mojang

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/testutil"
)

var (
	notchID = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	jebID   = uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
)

type ClientSuite struct {
	suite.Suite
	server *httptest.Server
	client *Client

	// status overrides the response code for every request when non-zero
	status       atomic.Int32
	healthStatus atomic.Int32
	requests     atomic.Int32
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.status.Store(0)
	s.healthStatus.Store(http.StatusOK)
	s.requests.Store(0)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/{name}", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if code := s.status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		switch strings.ToLower(r.PathValue("name")) {
		case "notch":
			_, _ = w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`))
		case "jeb_":
			_, _ = w.Write([]byte(`{"id":"853c80ef3c3749fdaa49938b674adae6","name":"jeb_"}`))
		case "bad name":
			w.WriteHeader(http.StatusBadRequest)
		case "garbage":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("GET /session/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		id := r.PathValue("id")
		if id == DefaultHealthProfileID {
			w.WriteHeader(int(s.healthStatus.Load()))
			return
		}
		if code := s.status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		switch id {
		case "069a79f444e94726a5befca90e38aaf5":
			_, _ = w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch","properties":[{"name":"textures","value":"..."}]}`))
		case "853c80ef3c3749fdaa49938b674adae6":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s.server = httptest.NewServer(mux)
	s.client = New(Config{
		ProfilesURL: s.server.URL + "/profiles/",
		SessionURL:  s.server.URL + "/session",
		Timeout:     2 * time.Second,
	}, testutil.NopLogger())
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestResolveByNameFound() {
	entry, err := s.client.ResolveByName(context.Background(), "notch")
	s.Require().NoError(err)
	s.Equal("Notch", entry.Name)
	s.Equal(notchID, entry.ID)
}

func (s *ClientSuite) TestResolveByNameNoContentIsNotFound() {
	_, err := s.client.ResolveByName(context.Background(), "nobody")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ClientSuite) TestResolveByNameBadRequestIsNotFound() {
	_, err := s.client.ResolveByName(context.Background(), "bad name")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ClientSuite) TestResolveByNameEmptySkipsRequest() {
	_, err := s.client.ResolveByName(context.Background(), "  ")
	s.ErrorIs(err, model.ErrNotFound)
	s.Equal(int32(0), s.requests.Load())
}

func (s *ClientSuite) TestResolveByNameMalformedBodyIsUnavailable() {
	_, err := s.client.ResolveByName(context.Background(), "garbage")
	s.ErrorIs(err, model.ErrUnavailable)
}

func (s *ClientSuite) TestResolveByNameServerErrorIsUnavailable() {
	s.status.Store(http.StatusInternalServerError)

	_, err := s.client.ResolveByName(context.Background(), "notch")
	s.ErrorIs(err, model.ErrUnavailable)
	s.NotErrorIs(err, model.ErrNotFound)
}

func (s *ClientSuite) TestResolveByNameRateLimitedIsUnavailable() {
	s.status.Store(http.StatusTooManyRequests)

	_, err := s.client.ResolveByName(context.Background(), "notch")
	s.ErrorIs(err, model.ErrUnavailable)
}

func (s *ClientSuite) TestResolveByIDFound() {
	entry, err := s.client.ResolveByID(context.Background(), notchID)
	s.Require().NoError(err)
	s.Equal(model.FriendEntry{Name: "Notch", ID: notchID}, entry)
}

func (s *ClientSuite) TestResolveByIDNotFound() {
	_, err := s.client.ResolveByID(context.Background(), uuid.New())
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ClientSuite) TestResolveByIDBadRequestIsUnavailable() {
	_, err := s.client.ResolveByID(context.Background(), jebID)
	s.ErrorIs(err, model.ErrUnavailable)
}

func (s *ClientSuite) TestTransportErrorIsUnavailable() {
	s.server.Close()

	_, err := s.client.ResolveByID(context.Background(), notchID)
	s.ErrorIs(err, model.ErrUnavailable)
	s.False(s.client.IsHealthy(context.Background()))
}

func (s *ClientSuite) TestCancelledContextIsUnavailable() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.client.ResolveByName(ctx, "notch")
	s.ErrorIs(err, model.ErrUnavailable)
}

func (s *ClientSuite) TestIsHealthy() {
	s.True(s.client.IsHealthy(context.Background()))

	s.healthStatus.Store(http.StatusServiceUnavailable)
	s.False(s.client.IsHealthy(context.Background()))
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Config{}, testutil.NopLogger())
	if c.profilesURL != DefaultProfilesURL || c.sessionURL != DefaultSessionURL {
		t.Fatalf("unexpected endpoints %q %q", c.profilesURL, c.sessionURL)
	}
	if c.healthProfileID != DefaultHealthProfileID {
		t.Fatalf("unexpected health id %q", c.healthProfileID)
	}
	if c.httpClient.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", c.httpClient.Timeout)
	}
}
