package main

import (
	"fmt"
	"strconv"
	"strings"

	"bunker-be/internal/service/game"

	"github.com/pterm/pterm"
)

var attributeLabels = map[game.AttributeType]string{
	game.ATTR_PROFESSION: "职业",
	game.ATTR_BIOLOGY:    "生理",
	game.ATTR_BODY:       "体型",
	game.ATTR_HEALTH:     "健康",
	game.ATTR_HOBBY:      "爱好",
	game.ATTR_PHOBIA:     "恐惧",
	game.ATTR_INVENTORY:  "物品",
	game.ATTR_BAGGAGE:    "行李",
	game.ATTR_FACT:       "事实",
	game.ATTR_ACTION:     "特殊行动",
}

const historyLines = 5

// render 每收到一次快照就整屏重绘，终端上不做增量更新
func render(gs game.GameState) {
	pterm.Print("\033[H\033[2J")

	pterm.DefaultSection.Printfln("房间 %s · 第 %d 轮 · %s", gs.RoomID, gs.Round, gs.Phase)

	if gs.IsTimerRunning {
		pterm.Info.Printfln("倒计时 %d 秒", gs.Timer)
	}

	if gs.Bunker != nil {
		pterm.DefaultBox.WithTitle(pterm.LightYellow(gs.Bunker.Disaster)).Println(bunkerText(*gs.Bunker))
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(playerTable(gs)).Render(); err != nil {
		pterm.Error.Println(err)
	}

	if me := gs.FindPlayer(gs.MyID); me != nil {
		if err := pterm.DefaultTable.WithHasHeader().WithData(ownCards(*me)).Render(); err != nil {
			pterm.Error.Println(err)
		}
	} else {
		pterm.Warning.Println("你是旁观者")
	}

	if speaker := game.CurrentSpeaker(&gs); speaker != nil {
		pterm.Info.Printfln("当前发言：%s", pterm.LightCyan(speaker.Name))
	}

	if len(gs.CandidatesForExile) > 0 {
		names := make([]string, 0, len(gs.CandidatesForExile))
		for _, id := range gs.CandidatesForExile {
			if p := gs.FindPlayer(id); p != nil {
				names = append(names, p.Name)
			}
		}
		pterm.Warning.Printfln("候选驱逐：%s", strings.Join(names, "、"))
	}

	renderHistory(gs.History)

	if gs.Phase == game.PHASE_GAME_OVER && gs.EndingStory != nil {
		pterm.DefaultBox.WithTitle(pterm.LightGreen("结局")).Println(*gs.EndingStory)
	}

	pterm.Println(commandHint(gs))
}

func bunkerText(b game.Scenario) string {
	return fmt.Sprintf(
		"%s\n\n面积 %d㎡ · 容量 %d 人\n食物：%s\n设备：%s\n位置：%s\n威胁：%s",
		b.Description,
		b.BunkerSize,
		b.Capacity,
		b.FoodSupply,
		strings.Join(b.Equipment, "、"),
		b.Location,
		b.Enemy,
	)
}

func playerTable(gs game.GameState) pterm.TableData {
	data := pterm.TableData{{"#", "玩家", "状态", "票数", "已公开"}}

	for i, p := range gs.Players {
		status := pterm.LightGreen("存活")
		if p.IsExiled {
			status = pterm.LightRed("已驱逐")
		}

		name := p.Name
		if p.IsHost {
			name += " ★"
		}
		if p.ID == gs.MyID {
			name = pterm.LightCyan(name)
		}

		data = append(data, []string{
			strconv.Itoa(i + 1),
			name,
			status,
			strconv.Itoa(p.VotesReceived),
			revealedCards(p),
		})
	}

	return data
}

func revealedCards(p game.Player) string {
	parts := make([]string, 0, len(game.AttributeTypes))
	for _, at := range game.AttributeTypes {
		if attr, ok := p.Stats[at]; ok && attr.IsRevealed {
			parts = append(parts, attributeLabels[at]+":"+attr.Value)
		}
	}

	return strings.Join(parts, " | ")
}

func ownCards(me game.Player) pterm.TableData {
	data := pterm.TableData{{"属性", "值", "公开"}}

	for _, at := range game.AttributeTypes {
		attr := me.Stats[at]

		shown := "否"
		if attr.IsRevealed {
			shown = pterm.LightGreen("是")
		}

		data = append(data, []string{fmt.Sprintf("%s (%s)", attributeLabels[at], at), attr.Value, shown})
	}

	return data
}

func renderHistory(history []string) {
	if len(history) == 0 {
		return
	}

	start := 0
	if len(history) > historyLines {
		start = len(history) - historyLines
	}

	items := make([]pterm.BulletListItem, 0, historyLines)
	for _, line := range history[start:] {
		items = append(items, pterm.BulletListItem{Level: 0, Text: line})
	}

	if err := pterm.DefaultBulletList.WithItems(items).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func commandHint(gs game.GameState) string {
	hint := "指令：reveal <属性> · action · vote <编号> · name <新名字> · quit"
	if gs.IsHost {
		hint += "\n房主：open · kick <编号> · start · round · speech · next · discuss · resolve · exile · timer <秒> · stop"
	}

	return pterm.Gray(hint)
}
