package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bunker-be/internal/service/game"
)

func TestParseScenario_StripsFenceAndDropsCapacity(t *testing.T) {
	text := "```json\n{\"disaster\":\"洪水\",\"description\":\"海平面上升\",\"bunkerSize\":80,\"capacity\":40,\"foodSupply\":\"半年\",\"equipment\":[\"水泵\"],\"location\":\"山顶\",\"enemy\":\"鲨鱼\"}\n```"

	scenario, err := ParseScenario(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if scenario.Disaster != "洪水" || scenario.BunkerSize != 80 || len(scenario.Equipment) != 1 {
		t.Fatalf("unexpected scenario: %+v", scenario)
	}

	if scenario.Capacity != 0 {
		t.Fatalf("capacity from the model must be discarded, got %d", scenario.Capacity)
	}
}

func TestParseScenario_RejectsGarbage(t *testing.T) {
	if _, err := ParseScenario("抱歉，我无法完成这个请求。"); err == nil {
		t.Fatalf("non-json reply should fail")
	}

	if _, err := ParseScenario(`{"description":"缺少灾难名"}`); err == nil {
		t.Fatalf("scenario without disaster should fail")
	}
}

func TestEndingPrompt_ListsSurvivors(t *testing.T) {
	survivors := []game.Player{
		game.NewPlayer("a", "阿强", true),
		game.NewPlayer("b", "小美", false),
	}

	prompt := EndingPrompt(survivors, game.FallbackScenario())

	for _, want := range []string{"阿强", "小美", game.FallbackScenario().Disaster} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	o, err := New(Options{Provider: PROVIDER_OPENAI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := o.(*StaticOracle); !ok {
		t.Fatalf("openai without key should fall back to static, got %T", o)
	}

	o, err = New(Options{Provider: PROVIDER_OPENAI, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := o.(*OpenAIOracle); !ok {
		t.Fatalf("want *OpenAIOracle, got %T", o)
	}

	if _, err := New(Options{Provider: "gemini"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("want ErrUnknownProvider, got %v", err)
	}
}

func TestStaticOracle(t *testing.T) {
	o := NewStatic()

	scenario, err := o.GenerateScenario(context.Background())
	if err != nil || scenario.Disaster == "" {
		t.Fatalf("static scenario failed: %+v %v", scenario, err)
	}

	story, err := o.NarrateEnding(context.Background(), []game.Player{{Name: "阿强"}}, scenario)
	if err != nil || !strings.Contains(story, "阿强") {
		t.Fatalf("static ending should mention survivors, got %q %v", story, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.GenerateScenario(ctx); err == nil {
		t.Fatalf("cancelled context should fail")
	}
}
