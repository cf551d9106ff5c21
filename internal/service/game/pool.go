package game

var attributePool = map[AttributeType][]string{
	ATTR_PROFESSION: {
		"外科医生", "电工", "农学家", "退役军人", "化学老师", "水管工", "程序员",
		"厨师", "心理咨询师", "飞行员", "兽医", "建筑师", "牧师", "消防员", "记者",
	},
	ATTR_BIOLOGY: {
		"男，23 岁", "女，31 岁", "男，47 岁", "女，19 岁", "男，65 岁",
		"女，54 岁", "男，36 岁，不育", "女，28 岁，怀孕三个月",
	},
	ATTR_BODY: {
		"运动员体格", "偏瘦", "肥胖", "身高两米", "体弱", "结实", "左臂残疾",
	},
	ATTR_HEALTH: {
		"完全健康", "哮喘", "糖尿病", "近视 800 度", "轻度抑郁", "过敏体质",
		"高血压", "失眠", "早期癌症", "色盲",
	},
	ATTR_HOBBY: {
		"钓鱼", "国际象棋", "园艺", "射击", "编织", "摄影", "登山", "无线电",
		"烘焙", "瑜伽",
	},
	ATTR_PHOBIA: {
		"幽闭恐惧", "恐高", "怕黑", "怕蜘蛛", "社交恐惧", "怕血", "怕水", "无",
	},
	ATTR_INVENTORY: {
		"柴油发电机", "急救箱", "猎枪", "种子库", "净水器", "短波电台",
		"工具箱", "帐篷", "太阳能板",
	},
	ATTR_BAGGAGE: {
		"一箱罐头", "三瓶伏特加", "一本百科全书", "手电和电池", "一包抗生素",
		"一只猫", "吉他", "一袋大米",
	},
	ATTR_FACT: {
		"曾经坐过牢", "会说五种语言", "参加过真人秀", "中过彩票", "是双胞胎",
		"在南极待过一年", "会开挖掘机", "曾是职业棋手",
	},
	ATTR_ACTION: {
		"交换任意两名玩家的一张已翻开卡片", "强制一名玩家翻开健康卡",
		"本轮投票中你的一票算两票", "取消一次驱逐", "查看任意一名玩家的一张暗卡",
		"与任意玩家交换职业卡",
	},
}

// NewPlayer 抽取全部十张属性卡，之后属性卡组成不再变化
func NewPlayer(id, name string, isHost bool) Player {
	stats := make(map[AttributeType]Attribute, len(AttributeTypes))
	for _, at := range AttributeTypes {
		stats[at] = Attribute{
			Value: randomItem(attributePool[at]),
			Type:  at,
		}
	}

	return Player{
		ID:       id,
		Name:     name,
		IsHost:   isHost,
		AvatarID: randomAvatar(),
		Stats:    stats,
	}
}
