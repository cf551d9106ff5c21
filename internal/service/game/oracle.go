package game

import "context"

// ScenarioOracle 生成灾难剧本与结局叙述，调用可能失败或超时
type ScenarioOracle interface {
	GenerateScenario(ctx context.Context) (Scenario, error)
	NarrateEnding(ctx context.Context, survivors []Player, scenario Scenario) (string, error)
}

// Archiver 在游戏结束时接收最终快照
type Archiver interface {
	ArchiveGame(ctx context.Context, final GameState) error
}

// 剧本生成失败时使用的固定剧本，保证阶段推进不会被卡住
func FallbackScenario() Scenario {
	return Scenario{
		Disaster:    "生物危机",
		Description: "一种未知病毒从实验室泄漏，城市在一周内陷入沉默。",
		BunkerSize:  120,
		FoodSupply:  "水培农场（可持续）",
		Equipment:   []string{"医疗舱", "武器柜"},
		Location:    "废弃军事基地地下三层",
		Enemy:       "感染者",
	}
}

const FALLBACK_ENDING = "与档案馆的联络中断了。幸存者的命运无人知晓。"
