package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"bunker-be/internal/service/game"
)

var staticScenarios = []game.Scenario{
	{
		Disaster:    "核冬天",
		Description: "核打击之后世界陷入混乱，气温骤降，辐射持续升高。",
		BunkerSize:  150,
		FoodSupply:  "两年份的罐头",
		Equipment:   []string{"发电机", "空气净化系统"},
		Location:    "图书馆下方的地下掩体",
		Enemy:       "食人的掠夺者",
	},
	{
		Disaster:    "超级火山",
		Description: "黄石火山喷发，火山灰遮蔽天空，农作物全部绝收。",
		BunkerSize:  90,
		FoodSupply:  "一年份的压缩口粮",
		Equipment:   []string{"净水器", "无线电台", "小型温室"},
		Location:    "废弃矿井深处",
		Enemy:       "抢夺物资的难民武装",
	},
	game.FallbackScenario(),
}

// StaticOracle 离线使用，从内置剧本中随机挑选
type StaticOracle struct{}

func NewStatic() *StaticOracle {
	return &StaticOracle{}
}

func (StaticOracle) GenerateScenario(ctx context.Context) (game.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return game.Scenario{}, err
	}

	scenario := staticScenarios[rand.Intn(len(staticScenarios))]
	scenario.Equipment = append([]string(nil), scenario.Equipment...)

	return scenario, nil
}

func (StaticOracle) NarrateEnding(ctx context.Context, survivors []game.Player, scenario game.Scenario) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(survivors) == 0 {
		return fmt.Sprintf("%s之后，地堡的大门再也没有打开过。", scenario.Disaster), nil
	}

	names := make([]string, 0, len(survivors))
	for _, p := range survivors {
		names = append(names, p.Name)
	}

	return fmt.Sprintf(
		"%s之后，%s在%s里熬过了漫长的岁月。他们的故事没有被记录下来，但地堡的灯一直亮着。",
		scenario.Disaster,
		strings.Join(names, "、"),
		scenario.Location,
	), nil
}
