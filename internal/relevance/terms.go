package relevance

// DefaultKeywords gate the title/description check. The corpus is built
// around year-end "best cosmetics" roundup videos.
var DefaultKeywords = []string{
	"ベストコスメ",
	"ベスコス",
	"best cosmetics",
}

// DefaultDomainTerms is the cosmetics vocabulary used for the transcript
// density check. Japanese-first, matching the channels this was tuned on.
var DefaultDomainTerms = []string{
	"発色", "テクスチャ", "保湿", "乾燥", "イエベ", "ブルベ",
	"毛穴", "カバー力", "崩れ", "色味", "パケ", "円",
	"塗る", "仕上がり", "ツヤ", "マット", "下地", "ラメ",
	"パウダー", "リキッド", "ファンデ", "リップ", "アイシャドウ",
	"チーク", "マスカラ", "アイライナー", "コンシーラー",
	"プライマー", "ハイライト", "シェーディング", "ベース",
	"スキンケア", "化粧水", "乳液", "美容液", "クレンジング",
	"日焼け止め", "SPF", "UV", "くすみ", "トーンアップ",
	"フィット", "ヨレ", "テカリ", "サラサラ", "しっとり",
	"ナチュラル", "透明感", "血色", "ツヤ肌", "マット肌",
	"プチプラ", "デパコス", "コスメ", "メイク",
}
