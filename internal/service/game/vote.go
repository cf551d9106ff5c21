package game

// 绝对多数阈值，仅在唯一候选人时生效
const ABSOLUTE_MAJORITY = 0.70

type VoteDecision string

const (
	DECISION_EXILE_SINGLE VoteDecision = "ExileSingle"
	DECISION_JUSTIFY      VoteDecision = "Justify"
	DECISION_EXILE_ALL    VoteDecision = "ExileAll"
)

type VoteResult struct {
	MaxVotes           int
	TotalVotes         int
	Candidates         []string
	Percentage         float64
	IsAbsoluteMajority bool
	Decision           VoteDecision
}

// ResolveVotes 只统计未被驱逐的玩家。判定顺序不可调换：
// 1. 唯一候选人且达到绝对多数 → 立即驱逐
// 2. 首轮投票中出现平票，或唯一候选人未达多数 → 进入辩护并复投
// 3. 其余情况（复投后仍平票或未达多数）→ 同时驱逐所有候选人
// 复投最多一次，同一回合内不会第二次进入辩护。
func ResolveVotes(players []Player, votingRound int) VoteResult {
	var result VoteResult

	for _, p := range players {
		if p.IsExiled {
			continue
		}

		result.TotalVotes += p.VotesReceived

		if p.VotesReceived > result.MaxVotes {
			result.MaxVotes = p.VotesReceived
		}
	}

	result.Candidates = make([]string, 0)
	for _, p := range players {
		if !p.IsExiled && p.VotesReceived == result.MaxVotes {
			result.Candidates = append(result.Candidates, p.ID)
		}
	}

	if result.TotalVotes > 0 {
		result.Percentage = float64(result.MaxVotes) / float64(result.TotalVotes)
	}

	result.IsAbsoluteMajority = result.Percentage >= ABSOLUTE_MAJORITY

	switch count := len(result.Candidates); {
	case count == 1 && result.IsAbsoluteMajority:
		result.Decision = DECISION_EXILE_SINGLE
	case votingRound == 0 && count > 0:
		result.Decision = DECISION_JUSTIFY
	default:
		result.Decision = DECISION_EXILE_ALL
	}

	return result
}
