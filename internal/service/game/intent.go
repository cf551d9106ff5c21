package game

import (
	"strings"
	"unicode/utf8"
)

const MAX_NAME_LENGTH = 24

// 以下函数都在快照副本上执行，返回 false 表示意图不合法，状态不变

// revealAttribute 翻转自己某张属性卡的公开状态
func revealAttribute(gs *GameState, playerID string, attrType AttributeType) bool {
	if !gs.Phase.InRound() || !attrType.Valid() {
		return false
	}

	player := gs.FindPlayer(playerID)
	if player == nil || player.IsExiled {
		return false
	}

	attr, ok := player.Stats[attrType]
	if !ok {
		return false
	}

	attr.IsRevealed = !attr.IsRevealed
	player.Stats[attrType] = attr

	return true
}

// useSpecialAction 使用特殊行动卡，即公开该卡，不可撤回
func useSpecialAction(gs *GameState, playerID string) bool {
	if !gs.Phase.InRound() {
		return false
	}

	player := gs.FindPlayer(playerID)
	if player == nil || player.IsExiled {
		return false
	}

	attr := player.Stats[ATTR_ACTION]
	if attr.IsRevealed {
		return false
	}

	attr.IsRevealed = true
	player.Stats[ATTR_ACTION] = attr

	gs.History = append(gs.History, player.Name+" 使用了特殊行动："+attr.Value)

	return true
}

// castVote 每名存活玩家每轮投票只能投一次，只能投给存活玩家
func castVote(gs *GameState, voterID, targetID string) bool {
	if gs.Phase != PHASE_VOTING {
		return false
	}

	voter := gs.FindPlayer(voterID)
	if voter == nil || voter.IsExiled {
		return false
	}

	if gs.HasVoted(voterID) {
		return false
	}

	target := gs.FindPlayer(targetID)
	if target == nil || target.IsExiled {
		return false
	}

	target.VotesReceived++
	gs.Voters = append(gs.Voters, voterID)

	return true
}

func renamePlayer(gs *GameState, playerID, name string) bool {
	if !gs.Phase.AcceptsJoin() {
		return false
	}

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MAX_NAME_LENGTH {
		return false
	}

	player := gs.FindPlayer(playerID)
	if player == nil || player.Name == name {
		return false
	}

	player.Name = name

	return true
}
