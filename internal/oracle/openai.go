package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bunker-be/internal/service/game"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const DEFAULT_MODEL = "gpt-4o-mini"

var ErrEmptyCompletion = errors.New("模型没有返回内容")

const scenarioSystemPrompt = `你是桌游《地堡》的主持人。请用中文生成一个末日场景，严格只返回一个 JSON 对象，不要附加任何解释。
字段：disaster(灾难名称), description(发生了什么、为什么必须躲进地堡), bunkerSize(地堡面积，平方米，整数),
foodSupply(食物储备的时长和种类), equipment(字符串数组，地堡内的设备), location(地堡入口位置), enemy(外面的威胁)。`

const endingSystemPrompt = `你是桌游《地堡》终局的讲述者。根据灾难设定和进入地堡的幸存者，用中文写一段四到五段的故事。
分析他们的职业和技能：食物够不够，疾病能不能治，能否抵御外敌，谁成为领袖，是否发生冲突。
最后给出结论：这群人活下来了还是全部覆灭。阵容不合理就应该失败。`

type OpenAIOracle struct {
	client openai.Client
	model  string
}

func NewOpenAI(opts Options) *OpenAIOracle {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DEFAULT_MODEL
	}

	return &OpenAIOracle{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

func (o *OpenAIOracle) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.9),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}

func (o *OpenAIOracle) GenerateScenario(ctx context.Context) (game.Scenario, error) {
	text, err := o.complete(ctx, scenarioSystemPrompt, "生成一个新的末日场景。")
	if err != nil {
		return game.Scenario{}, err
	}

	scenario, err := ParseScenario(text)
	if err != nil {
		zap.L().Warn("模型返回的剧本无法解析", zap.String("model", o.model), zap.Error(err))
		return game.Scenario{}, err
	}

	return scenario, nil
}

func (o *OpenAIOracle) NarrateEnding(ctx context.Context, survivors []game.Player, scenario game.Scenario) (string, error) {
	return o.complete(ctx, endingSystemPrompt, EndingPrompt(survivors, scenario))
}

// ParseScenario 解析模型返回的 JSON，容忍 Markdown 代码块包裹。容量总是清零，由状态机决定。
func ParseScenario(text string) (game.Scenario, error) {
	text = stripCodeFence(text)

	var scenario game.Scenario
	if err := json.Unmarshal([]byte(text), &scenario); err != nil {
		return game.Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}

	if strings.TrimSpace(scenario.Disaster) == "" {
		return game.Scenario{}, errors.New("decode scenario: disaster is empty")
	}

	scenario.Capacity = 0
	if scenario.Equipment == nil {
		scenario.Equipment = make([]string, 0)
	}

	return scenario, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// 去掉语言标记，如 ```json
		text = text[nl+1:]
	}

	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

func EndingPrompt(survivors []game.Player, scenario game.Scenario) string {
	var b strings.Builder

	fmt.Fprintf(&b, "灾难：%s\n", scenario.Disaster)
	fmt.Fprintf(&b, "描述：%s\n", scenario.Description)
	fmt.Fprintf(&b, "地堡：%s，食物：%s，威胁：%s\n", scenario.Location, scenario.FoodSupply, scenario.Enemy)
	fmt.Fprintf(&b, "设备：%s\n", strings.Join(scenario.Equipment, "、"))
	b.WriteString("进入地堡的人：\n")

	for _, p := range survivors {
		fmt.Fprintf(
			&b,
			"- %s：%s，%s，%s，爱好：%s，物品：%s，行李：%s，事实：%s\n",
			p.Name,
			p.Stats[game.ATTR_PROFESSION].Value,
			p.Stats[game.ATTR_BIOLOGY].Value,
			p.Stats[game.ATTR_HEALTH].Value,
			p.Stats[game.ATTR_HOBBY].Value,
			p.Stats[game.ATTR_INVENTORY].Value,
			p.Stats[game.ATTR_BAGGAGE].Value,
			p.Stats[game.ATTR_FACT].Value,
		)
	}

	return b.String()
}
