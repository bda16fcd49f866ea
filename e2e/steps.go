package e2e

import (
	"github.com/cucumber/godog"

	"votacao/e2e/steps/voting"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	voting.RegisterSteps(ctx, tc)
}
