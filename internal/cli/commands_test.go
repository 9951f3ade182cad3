package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/friendapi/internal/api"
	"github.com/mcoot/friendapi/internal/cli"
	"github.com/mcoot/friendapi/internal/factory"
	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/testutil"
)

var (
	notch = model.FriendEntry{Name: "Notch", ID: uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")}
	jeb   = model.FriendEntry{Name: "jeb_", ID: uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")}
)

type CommandsSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsSuite))
}

func (s *CommandsSuite) SetupTest() {
	s.T().Setenv("HOME", s.T().TempDir())

	s.app = factory.NewTestApp(notch, jeb)
	s.app.Start(context.Background())

	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Registry: s.app.Registry,
		Worker:   s.app.Worker,
		Resolver: s.app.Resolver,
		Hub:      s.app.Hub,
	}))

	s.T().Cleanup(func() {
		// Closing the hub ends open event streams so the server can close
		_ = s.app.Close()
		s.server.Close()
	})
}

// run executes the CLI against the test server and returns stdout
func (s *CommandsSuite) run(args ...string) (string, error) {
	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", s.server.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CommandsSuite) runJSON(result any, args ...string) {
	out, err := s.run(append([]string{"-o", "json"}, args...)...)
	s.Require().NoError(err, out)
	s.Require().NoError(json.Unmarshal([]byte(out), result), out)
}

func (s *CommandsSuite) TestHealth() {
	var result cli.HealthResult
	s.runJSON(&result, "health")
	s.Equal("ok", result.Status)
}

func (s *CommandsSuite) TestListEmpty() {
	out, err := s.run("list")
	s.Require().NoError(err)
	s.Equal("You currently have no friends on your friend list.\n", out)
}

func (s *CommandsSuite) TestAddThenList() {
	out, err := s.run("add", "notch")
	s.Require().NoError(err)
	s.Equal("Notch has been added to your friend list.\n", out)

	var added cli.AddResult
	s.runJSON(&added, "add", jeb.ID.String())
	s.Equal("added", added.Outcome)
	s.Equal("jeb_", added.Friend.Name)

	var list cli.FriendList
	s.runJSON(&list, "list")
	s.Equal(2, list.Count)
	s.Equal([]cli.Friend{
		{Name: "Notch", ID: model.CompactID(notch.ID)},
		{Name: "jeb_", ID: model.CompactID(jeb.ID)},
	}, list.Friends)

	out, err = s.run("list")
	s.Require().NoError(err)
	s.Contains(out, "Friends (2):")
	s.Contains(out, "  - Notch (")
}

func (s *CommandsSuite) TestAddFailures() {
	_, err := s.run("add", "Notch")
	s.Require().NoError(err)

	_, err = s.run("add", "NOTCH")
	s.EqualError(err, "NOTCH is already on your friend list")

	_, err = s.run("add", "Herobrine")
	s.EqualError(err, "Herobrine doesn't exist")

	s.app.MockResolver.SetUnavailable(true)
	_, err = s.run("add", "jeb_")
	s.ErrorContains(err, "the profile service is unavailable")
}

func (s *CommandsSuite) TestRemove() {
	_, err := s.run("add", "Notch")
	s.Require().NoError(err)

	out, err := s.run("remove", "notch")
	s.Require().NoError(err)
	s.Equal("Notch has been removed from your friend list.\n", out)

	_, err = s.run("remove", "notch")
	s.EqualError(err, "notch isn't on your friend list")
}

func (s *CommandsSuite) TestClear() {
	out, err := s.run("clear")
	s.Require().NoError(err)
	s.Equal("You currently have no friends on your friend list to clear.\n", out)

	_, err = s.run("add", "Notch")
	s.Require().NoError(err)
	_, err = s.run("add", "jeb_")
	s.Require().NoError(err)

	out, err = s.run("clear")
	s.Require().NoError(err)
	s.Equal("2 friends have been cleared from your friend list.\n", out)
	s.Equal(0, s.app.Registry.Len())
}

func (s *CommandsSuite) TestUpdate() {
	_, err := s.run("add", "Notch")
	s.Require().NoError(err)
	_, err = s.run("add", "jeb_")
	s.Require().NoError(err)

	s.app.MockResolver.Rename(notch.ID, "NotNotch")
	s.app.MockResolver.RemoveProfile(jeb.ID)

	var result cli.ReconcileResult
	s.runJSON(&result, "update")
	s.Equal(2, result.Checked)
	s.Equal(1, result.Renamed)
	s.Equal(1, result.Removed)
	s.Equal(1, result.Remaining)
	s.False(result.ServiceDown)

	var list cli.FriendList
	s.runJSON(&list, "list")
	s.Require().Len(list.Friends, 1)
	s.Equal("NotNotch", list.Friends[0].Name)
}

func (s *CommandsSuite) TestUpdateAsync() {
	out, err := s.run("update", "--async")
	s.Require().NoError(err)
	s.Equal("Update queued.\n", out)
}

func (s *CommandsSuite) TestSuggest() {
	_, err := s.run("add", "Notch")
	s.Require().NoError(err)
	_, err = s.run("add", "jeb_")
	s.Require().NoError(err)

	var friends cli.Suggestions
	s.runJSON(&friends, "suggest", "NO")
	s.Equal([]string{"Notch"}, friends.Suggestions)

	var players cli.Suggestions
	s.runJSON(&players, "suggest", "--online", "Notch,Grumm,Dinnerbone")
	s.Equal([]string{"Grumm", "Dinnerbone"}, players.Suggestions)
}

func (s *CommandsSuite) TestStatus() {
	_, err := s.run("add", "Notch")
	s.Require().NoError(err)

	var status cli.StatusResult
	s.runJSON(&status, "status")
	s.Equal(1, status.Count)
	s.True(status.ResolverHealthy)
	s.Nil(status.LastReconcile)

	s.app.MockResolver.SetHealthy(false)
	out, err := s.run("status")
	s.Require().NoError(err)
	s.Contains(out, "Friends: 1\n")
	s.Contains(out, "Profile service: down\n")
}

func (s *CommandsSuite) TestEventsStreamsChanges() {
	type runResult struct {
		out string
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		out, err := s.run("events", "--json", "--count", "1")
		done <- runResult{out, err}
	}()

	s.Require().Eventually(func() bool {
		return s.app.Hub.ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err := s.run("add", "Notch")
	s.Require().NoError(err)

	select {
	case res := <-done:
		s.Require().NoError(res.err)
		var event cli.SSEEvent
		s.Require().NoError(json.Unmarshal([]byte(strings.TrimSpace(res.out)), &event))
		s.Equal("friends-changed", event.Event)
		s.JSONEq(`{"kind":"added","count":1}`, event.Data)
	case <-time.After(5 * time.Second):
		s.Fail("events command did not receive the change")
	}
}

func (s *CommandsSuite) TestServerErrorWithoutCode() {
	_, err := s.run("--server", s.server.URL+"/nope", "list")
	s.Error(err)
}

func TestOutput_JSONError(t *testing.T) {
	var out, errOut bytes.Buffer
	o := cli.NewOutput("json", &out, &errOut)
	o.PrintError(&cli.APIError{Status: 404, Code: "FRIEND_NOT_FOUND", Message: "friend not found: x"})

	assert.Empty(t, out.String())
	assert.JSONEq(t, `{"error":{"code":"FRIEND_NOT_FOUND","message":"friend not found: x"}}`, errOut.String())
}

func TestOutput_ClearPluralisation(t *testing.T) {
	var out bytes.Buffer
	o := cli.NewOutput("text", &out, &out)
	o.Print(cli.ClearResult{Cleared: 1})
	require.Equal(t, "1 friend has been cleared from your friend list.\n", out.String())
}
