package voting

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	SetAgendaID(agendaID string)
	GetAgendaID() string
}

// RegisterSteps registers agenda, session and vote step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &votingSteps{tc: tc}

	ctx.Step(`^an agenda titled "([^"]*)"$`, steps.agendaTitled)
	ctx.Step(`^a voting session is opened for (\d+) minutes?$`, steps.sessionOpenedFor)
	ctx.Step(`^a voting session is opened with the default duration$`, steps.sessionOpenedDefault)
	ctx.Step(`^I open a voting session for the agenda$`, steps.sessionOpenedDefault)
	ctx.Step(`^voter "([^"]*)" votes "([^"]*)"$`, steps.voterVotes)
	ctx.Step(`^voter "([^"]*)" votes on an unknown agenda$`, steps.voterVotesUnknownAgenda)
	ctx.Step(`^I request the results$`, steps.requestResults)
	ctx.Step(`^I wait (\d+) seconds?$`, steps.waitSeconds)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the results should be (\d+) yes and (\d+) no with status "([^"]*)"$`, steps.resultsShouldBe)
}

type votingSteps struct {
	tc TestContext
}

func (s *votingSteps) agendaTitled(_ context.Context, title string) error {
	if err := s.tc.POST("/api/agendas", map[string]string{"title": title}); err != nil {
		return err
	}
	if err := s.expectStatus(201); err != nil {
		return err
	}
	agendaID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetAgendaID(fmt.Sprint(agendaID))
	return nil
}

func (s *votingSteps) sessionOpenedFor(_ context.Context, minutes int) error {
	return s.tc.POST(s.agendaPath("/voting-session"), map[string]int{"duration_minutes": minutes})
}

func (s *votingSteps) sessionOpenedDefault(context.Context) error {
	return s.tc.POST(s.agendaPath("/voting-session"), nil)
}

func (s *votingSteps) voterVotes(_ context.Context, cpf, choice string) error {
	return s.tc.POST(s.agendaPath("/votes"), map[string]string{"cpf": cpf, "vote": choice})
}

func (s *votingSteps) voterVotesUnknownAgenda(_ context.Context, cpf string) error {
	return s.tc.POST("/api/agendas/00000000-0000-4000-8000-000000000000/votes",
		map[string]string{"cpf": cpf, "vote": "Yes"})
}

func (s *votingSteps) requestResults(context.Context) error {
	return s.tc.GET(s.agendaPath("/results"))
}

func (s *votingSteps) waitSeconds(_ context.Context, seconds int) error {
	time.Sleep(time.Duration(seconds) * time.Second)
	return nil
}

func (s *votingSteps) statusShouldBe(_ context.Context, status int) error {
	return s.expectStatus(status)
}

func (s *votingSteps) fieldShouldBe(_ context.Context, field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("field %q: got %v, want %s", field, got, want)
	}
	return nil
}

func (s *votingSteps) resultsShouldBe(ctx context.Context, yes, no int, status string) error {
	if err := s.requestResults(ctx); err != nil {
		return err
	}
	if err := s.expectStatus(200); err != nil {
		return err
	}
	for field, want := range map[string]string{
		"yes":    fmt.Sprint(yes),
		"no":     fmt.Sprint(no),
		"status": status,
	} {
		if err := s.fieldShouldBe(ctx, field, want); err != nil {
			return err
		}
	}
	return nil
}

func (s *votingSteps) expectStatus(want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("status: got %d, want %d (body %s)", got, want, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *votingSteps) agendaPath(suffix string) string {
	return "/api/agendas/" + s.tc.GetAgendaID() + suffix
}
